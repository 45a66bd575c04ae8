package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"gurukulx/internal/app"
)

// NewRouter wires every handler into a gin engine. The websocket feed and the
// health probe live outside the authenticated /api/v1 surface.
func NewRouter(
	authHandler *AuthHandler,
	profileHandler *ProfileHandler,
	learningHandler *LearningHandler,
	wsHandler *WSHandler,
	tokens AccessValidator,
	auth *app.AuthService,
) *gin.Engine {
	r := gin.Default()

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
	r.Use(cors.New(config))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws/leaderboard", gin.WrapF(wsHandler.ServeWS))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		api.GET("/leaderboard", profileHandler.GetLeaderboard)

		protected := api.Group("")
		protected.Use(RequireAuth(tokens, auth))
		{
			protected.GET("/profile", profileHandler.GetProfile)
			protected.PUT("/profile", profileHandler.UpdateProfile)
			protected.POST("/results", profileHandler.PostResult)

			games := protected.Group("/games")
			{
				games.POST("/start", profileHandler.StartGame)
				games.POST("/answer", profileHandler.SubmitAnswer)
				games.POST("/abandon", profileHandler.AbandonGame)
			}

			protected.GET("/students", profileHandler.GetStudents)
			protected.GET("/stats/class", profileHandler.GetClassStats)

			assignments := protected.Group("/assignments")
			{
				assignments.GET("", learningHandler.ListAssignments)
				assignments.POST("", learningHandler.CreateAssignment)
				assignments.POST("/:id/submit", learningHandler.SubmitAssignment)
			}

			doubts := protected.Group("/doubts")
			{
				doubts.GET("", learningHandler.ListDoubts)
				doubts.POST("", learningHandler.AskDoubt)
				doubts.POST("/:id/answer", learningHandler.AnswerDoubt)
			}

			feedback := protected.Group("/feedback")
			{
				feedback.GET("", learningHandler.ListFeedback)
				feedback.POST("", learningHandler.SubmitFeedback)
			}
		}
	}

	return r
}
