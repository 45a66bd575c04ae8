package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"gurukulx/internal/config"
	"gurukulx/internal/domain"
	pgstore "gurukulx/internal/infra/postgres"
	"gurukulx/internal/security"
)

// NewSeedCmd loads demo accounts, profiles, and an assignment into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed demo data into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	docs := pgstore.NewDocumentStore(pool)
	hasher := security.NewPasswordHasher()
	now := time.Now()

	type demoUser struct {
		name  string
		role  domain.Role
		class string
		score int
		xp    int
	}
	users := []demoUser{
		{"Aditi", domain.RoleStudent, "6A", 820, 820},
		{"Rahul", domain.RoleStudent, "6B", 640, 640},
		{"Meera", domain.RoleStudent, "7A", 455, 455},
		{"MsSharma", domain.RoleTeacher, "", 0, 0},
	}

	for _, u := range users {
		hash, err := hasher.Hash("gurukulx")
		if err != nil {
			return err
		}
		account := domain.Account{
			ID:           uuid.NewString(),
			Name:         u.name,
			Role:         u.role,
			Class:        u.class,
			PasswordHash: hash,
			CreatedAt:    now,
		}
		if err := docs.SaveAccount(ctx, account); err != nil {
			return err
		}
		if u.role == domain.RoleStudent {
			profile := domain.Profile{
				Name:     u.name,
				Score:    u.score,
				XP:       u.xp,
				Level:    domain.LevelForXP(u.xp),
				Progress: 40,
				Streak:   1,
				Badges:   domain.BadgesFor(u.score, 1),
			}
			if err := docs.SaveProfile(ctx, profile); err != nil {
				return err
			}
		}
	}

	assignment := domain.Assignment{
		ID:          uuid.NewString(),
		Title:       "Fractions worksheet",
		Description: "Compare and order the fractions on page 42.",
		Subject:     "Maths",
		Class:       "6A",
		TeacherName: "MsSharma",
		DueDate:     now.AddDate(0, 0, 7).Format("2006-01-02"),
		CreatedAt:   now,
	}
	if err := docs.SaveAssignment(ctx, assignment); err != nil {
		return err
	}

	log.Printf("seeded %d accounts and 1 assignment", len(users))
	return nil
}
