package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"lextutor-backend/models"
	"lextutor-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// QuestionHistory reads the question log
type QuestionHistory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.QuestionRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*models.QuestionRecord, error)
}

// HistoryHandler handles HTTP requests for previously processed questions
type HistoryHandler struct {
	history QuestionHistory
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history QuestionHistory) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// ListQuestions handles GET /api/questions
func (h *HistoryHandler) ListQuestions(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
	})
}

// GetQuestion handles GET /api/questions/:id
func (h *HistoryHandler) GetQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid question id format")
		return
	}

	record, err := h.history.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrQuestionNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "GET_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}
