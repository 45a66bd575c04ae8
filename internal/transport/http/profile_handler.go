package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gurukulx/internal/app"
	"gurukulx/internal/domain"
)

// ProfileHandler serves the ledger, the game sessions, and the scoreboard
// read views.
type ProfileHandler struct {
	ledger *app.ProfileService
	boards *app.ScoreboardService
	games  *app.GameService
	auth   *app.AuthService
}

func NewProfileHandler(ledger *app.ProfileService, boards *app.ScoreboardService, games *app.GameService, auth *app.AuthService) *ProfileHandler {
	return &ProfileHandler{ledger: ledger, boards: boards, games: games, auth: auth}
}

// GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user := currentUser(c)
	profile := h.ledger.MaintainStreak(user.Name)
	rank, _ := h.boards.RankOf(user.Name)
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile, "rank": rank})
}

type profilePatch struct {
	Class         string `json:"class"`
	ResetProgress bool   `json:"resetProgress"`
}

// PUT /api/v1/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	user := currentUser(c)
	var req profilePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// the patch is keyed by the authenticated name, never the session identity
	if req.Class != "" {
		updated, err := h.auth.UpdateClass(c.Request.Context(), user.Name, req.Class)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		user = updated
		h.boards.SetClass(c.Request.Context(), user.Name, req.Class)
	}
	profile := h.ledger.Profile(user.Name)
	if req.ResetProgress {
		profile = h.ledger.ResetProgress(user.Name)
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

type resultRequest struct {
	GameType       string `json:"gameType" binding:"required"`
	Score          int    `json:"score"`
	XPEarned       int    `json:"xpEarned"`
	ProgressEarned int    `json:"progressEarned"`
}

// POST /api/v1/results ingests a result completed on the client. The ledger
// is updated locally first; upstream delivery stays best-effort, so this
// always succeeds once the payload parses.
func (h *ProfileHandler) PostResult(c *gin.Context) {
	user := currentUser(c)
	var req resultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := h.ledger.ApplyGameResult(user.Name, domain.GameResult{
		GameType:      domain.GameType(req.GameType),
		ScoreDelta:    req.Score,
		XPDelta:       req.XPEarned,
		ProgressDelta: req.ProgressEarned,
	})
	h.boards.SyncScoreboards(c.Request.Context(), user.Name)
	rank, _ := h.boards.RankOf(user.Name)
	c.JSON(http.StatusOK, gin.H{"profile": profile, "rank": rank})
}

type startGameRequest struct {
	GameType string `json:"gameType" binding:"required"`
}

// POST /api/v1/games/start
func (h *ProfileHandler) StartGame(c *gin.Context) {
	user := currentUser(c)
	var req startGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.games.Start(c.Request.Context(), user.Name, domain.GameType(req.GameType))
	if err != nil {
		if errors.Is(err, domain.ErrGameNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown game"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	question, _ := session.Question()
	c.JSON(http.StatusOK, gin.H{"question": publicQuestion(question)})
}

type answerRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	OptionID   string `json:"optionId" binding:"required"`
}

// POST /api/v1/games/answer
func (h *ProfileHandler) SubmitAnswer(c *gin.Context) {
	user := currentUser(c)
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.games.Submit(c.Request.Context(), user.Name, req.QuestionID, req.OptionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionNotRunning):
			c.JSON(http.StatusConflict, gin.H{"error": "no running game session"})
		case errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrOptionNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	resp := gin.H{"outcome": outcome}
	if !outcome.Done {
		if session, err := h.games.Session(user.Name); err == nil {
			if question, ok := session.Question(); ok {
				resp["question"] = publicQuestion(question)
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/v1/games/abandon
func (h *ProfileHandler) AbandonGame(c *gin.Context) {
	h.games.Abandon(currentUser(c).Name)
	c.Status(http.StatusNoContent)
}

// GET /api/v1/leaderboard
func (h *ProfileHandler) GetLeaderboard(c *gin.Context) {
	if raw := c.Query("top"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			c.JSON(http.StatusOK, gin.H{"entries": h.boards.TopN(n)})
			return
		}
	}
	c.JSON(http.StatusOK, h.boards.Snapshot())
}

// GET /api/v1/students
func (h *ProfileHandler) GetStudents(c *gin.Context) {
	if currentUser(c).Role != domain.RoleTeacher {
		c.JSON(http.StatusForbidden, gin.H{"error": "teacher account required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": h.boards.Roster()})
}

// GET /api/v1/stats/class
func (h *ProfileHandler) GetClassStats(c *gin.Context) {
	if currentUser(c).Role != domain.RoleTeacher {
		c.JSON(http.StatusForbidden, gin.H{"error": "teacher account required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": h.boards.ClassStats()})
}

// publicQuestion strips the correct flags before a question goes on the wire.
func publicQuestion(q domain.Question) gin.H {
	options := make([]gin.H, 0, len(q.Options))
	for _, o := range q.Options {
		options = append(options, gin.H{"id": o.ID, "text": o.Text})
	}
	return gin.H{"id": q.ID, "prompt": q.Prompt, "options": options, "points": q.Points}
}
