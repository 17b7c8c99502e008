package handlers

import (
	"errors"
	"net/http"

	"lextutor-backend/models"
	"lextutor-backend/parser"
	"lextutor-backend/service"

	"github.com/gin-gonic/gin"
)

// QuestionHandler handles HTTP requests for legal questions and article lookups
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ProcessQuestionRequest represents the request body for processing a question
type ProcessQuestionRequest struct {
	Question string   `json:"question"`
	Keywords []string `json:"keywords"`
}

// FetchArticleRequest represents the request body for a direct article lookup
type FetchArticleRequest struct {
	LawCode       string `json:"lawCode" binding:"required"`
	ArticleNumber string `json:"articleNumber" binding:"required"`
}

// ProcessQuestion handles POST /api/process
func (h *QuestionHandler) ProcessQuestion(c *gin.Context) {
	var req ProcessQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	q := models.NewQuestion(req.Question, req.Keywords)
	if q.Text == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", service.ErrEmptyQuestion.Error())
		return
	}

	result := h.questionService.ProcessQuestion(c.Request.Context(), q)
	if result.Failed() {
		respondError(c, http.StatusBadGateway, "ANALYSIS_FAILED", result.Error)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// FetchArticle handles POST /api/fetch-article
func (h *QuestionHandler) FetchArticle(c *gin.Context) {
	var req FetchArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	articles, err := h.questionService.FetchArticle(c.Request.Context(), req.LawCode, req.ArticleNumber)
	switch {
	case errors.Is(err, parser.ErrUnsupportedRange), errors.Is(err, parser.ErrEmptyArticle):
		respondError(c, http.StatusBadRequest, "INVALID_ARTICLE", err.Error())
		return
	case errors.Is(err, service.ErrArticleNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ARTICLE_NOT_FOUND",
				"message": err.Error(),
			},
			"data": articles,
		})
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    articles,
	})
}

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
