package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gurukulx/internal/app"
	"gurukulx/internal/domain"
)

// LearningHandler serves assignments, doubts, and feedback.
type LearningHandler struct {
	learning *app.LearningService
}

func NewLearningHandler(learning *app.LearningService) *LearningHandler {
	return &LearningHandler{learning: learning}
}

type createAssignmentRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	Class       string `json:"class" binding:"required"`
	DueDate     string `json:"dueDate"`
}

// POST /api/v1/assignments
func (h *LearningHandler) CreateAssignment(c *gin.Context) {
	user := currentUser(c)
	var req createAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignment, err := h.learning.CreateAssignment(c.Request.Context(), user, domain.Assignment{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Class:       req.Class,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeLearningError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assignment": assignment})
}

// GET /api/v1/assignments
func (h *LearningHandler) ListAssignments(c *gin.Context) {
	user := currentUser(c)
	class := c.Query("class")
	if class == "" && user.Role != domain.RoleTeacher {
		class = user.Class
	}

	assignments, err := h.learning.ListAssignments(c.Request.Context(), class)
	if err != nil {
		writeLearningError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

type submitAssignmentRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// POST /api/v1/assignments/:id/submit
func (h *LearningHandler) SubmitAssignment(c *gin.Context) {
	user := currentUser(c)
	var req submitAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignment, err := h.learning.SubmitAssignment(c.Request.Context(), c.Param("id"), user, req.Answer)
	if err != nil {
		writeLearningError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignment": assignment})
}

type askDoubtRequest struct {
	Subject  string `json:"subject"`
	Question string `json:"question" binding:"required"`
}

// POST /api/v1/doubts
func (h *LearningHandler) AskDoubt(c *gin.Context) {
	user := currentUser(c)
	var req askDoubtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doubt, err := h.learning.AskDoubt(c.Request.Context(), user, req.Subject, req.Question)
	if err != nil {
		writeLearningError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"doubt": doubt})
}

// GET /api/v1/doubts
func (h *LearningHandler) ListDoubts(c *gin.Context) {
	doubts, err := h.learning.ListDoubts(c.Request.Context(), currentUser(c))
	if err != nil {
		writeLearningError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doubts": doubts})
}

type answerDoubtRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// POST /api/v1/doubts/:id/answer
func (h *LearningHandler) AnswerDoubt(c *gin.Context) {
	user := currentUser(c)
	var req answerDoubtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doubt, err := h.learning.AnswerDoubt(c.Request.Context(), c.Param("id"), user, req.Answer)
	if err != nil {
		writeLearningError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doubt": doubt})
}

type feedbackRequest struct {
	Message string `json:"message" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
}

// POST /api/v1/feedback
func (h *LearningHandler) SubmitFeedback(c *gin.Context) {
	user := currentUser(c)
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fb, err := h.learning.SubmitFeedback(c.Request.Context(), user, req.Message, req.Rating)
	if err != nil {
		writeLearningError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"feedback": fb})
}

// GET /api/v1/feedback
func (h *LearningHandler) ListFeedback(c *gin.Context) {
	feedback, err := h.learning.ListFeedback(c.Request.Context(), currentUser(c))
	if err != nil {
		writeLearningError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": feedback})
}

func writeLearningError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotTeacher):
		c.JSON(http.StatusForbidden, gin.H{"error": "teacher account required"})
	case errors.Is(err, domain.ErrAssignmentNotFound), errors.Is(err, domain.ErrDoubtNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
