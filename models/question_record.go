package models

import (
	"time"

	"github.com/google/uuid"
)

// QuestionStatus represents the outcome of a processed question
type QuestionStatus string

const (
	QuestionStatusAnswered QuestionStatus = "answered"
	QuestionStatusFailed   QuestionStatus = "failed"
)

// QuestionRecord is the persisted log entry of one processed question
type QuestionRecord struct {
	ID        uuid.UUID       `json:"id"`
	Question  string          `json:"question"`
	Keywords  []string        `json:"keywords"`
	Status    QuestionStatus  `json:"status"`
	Result    AggregateResult `json:"result"`
	Error     *string         `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewQuestionRecord builds a record from a question and its aggregate result
func NewQuestionRecord(q Question, result *AggregateResult) *QuestionRecord {
	record := &QuestionRecord{
		ID:       uuid.New(),
		Question: q.Text,
		Keywords: q.Keywords,
		Status:   QuestionStatusAnswered,
	}
	if record.Keywords == nil {
		record.Keywords = []string{}
	}
	if result != nil {
		record.Result = *result
		if result.Failed() {
			record.Status = QuestionStatusFailed
			msg := result.Error
			record.Error = &msg
		}
	}
	return record
}
