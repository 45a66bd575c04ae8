package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"gurukulx/internal/app"
	"gurukulx/internal/config"
	"gurukulx/internal/infra/memory"
	pgstore "gurukulx/internal/infra/postgres"
	redisstore "gurukulx/internal/infra/redis"
	"gurukulx/internal/security"
	transport "gurukulx/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the learning platform server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	kv := memory.NewKV()
	identity := memory.NewIdentityStore(kv)
	profiles := memory.NewProfileStore(kv)
	boardRepo := memory.NewScoreboardStore(kv)

	ledger := app.NewProfileService(profiles, identity, boardRepo)
	if pool != nil {
		docs := pgstore.NewDocumentStore(pool)
		var remote app.RemoteProfileStore = docs
		if redisClient != nil {
			cacheTTL := config.TTLDuration(cfg.Profile.CacheTTL, 5*time.Minute)
			remote = redisstore.NewProfileCache(redisClient, docs, cacheTTL)
		}
		ledger = ledger.WithRemote(remote)
	}

	boards := app.NewScoreboardService(boardRepo, profiles, identity)
	if redisClient != nil {
		boards = boards.WithMirror(redisstore.NewLeaderboardMirror(redisClient))
	}

	questionTTL := config.TTLDuration(cfg.Game.QuestionTTL, 30*time.Second)
	questions := memory.NewQuestionSource(memory.DefaultQuizBank(), time.Now().UnixNano())
	games := app.NewGameService(questions, ledger, boards, questionTTL)
	if cfg.Sync.ResultsURL != "" {
		games = games.WithResultSink(app.NewResultDispatcher(cfg.Sync.ResultsURL))
	}

	var accounts app.AccountRepository = memory.NewAccountStore()
	var learningRepo app.LearningRepository = memory.NewLearningStore()
	if pool != nil {
		docs := pgstore.NewDocumentStore(pool)
		accounts = docs
		learningRepo = docs
	}

	tokens := security.NewTokenManager(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret)
	auth := app.NewAuthService(accounts, security.NewPasswordHasher(), tokens, identity, ledger)
	learning := app.NewLearningService(learningRepo)

	ledger.BootstrapDefaults()

	router := transport.NewRouter(
		transport.NewAuthHandler(auth),
		transport.NewProfileHandler(ledger, boards, games, auth),
		transport.NewLearningHandler(learning),
		transport.NewWSHandler(boards),
		tokens,
		auth,
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting gurukulx on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
