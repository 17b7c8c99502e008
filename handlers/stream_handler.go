package handlers

import (
	"net/http"

	"lextutor-backend/models"
	"lextutor-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// StreamHandler serves the incremental question channel over a websocket
type StreamHandler struct {
	questionService *service.QuestionService
	upgrader        websocket.Upgrader
	logger          *zap.Logger
}

// NewStreamHandler creates a new stream handler. An empty allowedOrigins
// accepts every origin.
func NewStreamHandler(questionService *service.QuestionService, allowedOrigins []string, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &StreamHandler{
		questionService: questionService,
		logger:          logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// Stream handles GET /ws. Each text frame carries one question; the answer
// is streamed back as typed messages. The connection stays open until the
// client closes it.
func (h *StreamHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	for {
		var req ProcessQuestionRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Info("websocket closed", zap.Error(err))
			}
			return
		}

		q := models.NewQuestion(req.Question, req.Keywords)
		if q.Text == "" {
			msg := models.StreamMessage{Type: models.MessageError, Data: service.ErrEmptyQuestion.Error()}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
			continue
		}

		var writeErr error
		h.questionService.ProcessQuestionStream(ctx, q, func(msg models.StreamMessage) error {
			writeErr = conn.WriteJSON(msg)
			return writeErr
		})
		if writeErr != nil {
			h.logger.Info("client went away during processing", zap.Error(writeErr))
			return
		}
	}
}
