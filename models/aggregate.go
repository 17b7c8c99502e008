package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// AggregateResult is the merged response for one question: the model analysis,
// the resolved law articles and the related jurisprudence. When the model call
// fails only Error is set.
type AggregateResult struct {
	AssistantResponse string               `json:"assistant_response,omitempty"`
	Analysis          *ParsedAnalysis      `json:"analysis,omitempty"`
	Articles          []ArticleContent     `json:"articles"`
	Jurisprudence     []JurisprudenceEntry `json:"jurisprudence"`
	Error             string               `json:"error,omitempty"`
}

// Failed reports whether the whole pipeline aborted.
func (r *AggregateResult) Failed() bool {
	return r.Error != ""
}

// Value implements driver.Valuer for JSONB
func (r AggregateResult) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB
func (r *AggregateResult) Scan(value interface{}) error {
	if value == nil {
		*r = AggregateResult{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("unsupported type for aggregate result")
	}

	if len(bytes) == 0 {
		*r = AggregateResult{}
		return nil
	}

	return json.Unmarshal(bytes, r)
}
