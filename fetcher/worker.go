package fetcher

import (
	"errors"
	"fmt"

	"lextutor-backend/models"
)

// Worker error kinds carried across the process boundary.
const (
	KindTimeout  = "timeout"
	KindNotFound = "not_found"
	KindInvalid  = "invalid"
	KindFailure  = "failure"
)

// WorkerResponse is the JSON document an extraction worker writes to stdout.
type WorkerResponse struct {
	Success   bool                        `json:"success"`
	Error     string                      `json:"error,omitempty"`
	ErrorKind string                      `json:"error_kind,omitempty"`
	Article   *models.ArticleContent      `json:"article,omitempty"`
	Entries   []models.JurisprudenceEntry `json:"entries,omitempty"`
}

// ArticleResponse wraps a fetched article.
func ArticleResponse(content models.ArticleContent) WorkerResponse {
	return WorkerResponse{Success: true, Article: &content}
}

// EntriesResponse wraps case-law search results.
func EntriesResponse(entries []models.JurisprudenceEntry) WorkerResponse {
	if entries == nil {
		entries = []models.JurisprudenceEntry{}
	}
	return WorkerResponse{Success: true, Entries: entries}
}

// ErrorResponse classifies err for transport.
func ErrorResponse(err error) WorkerResponse {
	kind := KindFailure
	switch {
	case errors.Is(err, ErrTimeout):
		kind = KindTimeout
	case errors.Is(err, ErrElementNotFound):
		kind = KindNotFound
	case errors.Is(err, ErrInvalidInput):
		kind = KindInvalid
	}
	return WorkerResponse{Error: err.Error(), ErrorKind: kind}
}

// Err restores the sentinel matching the transported error kind.
func (r WorkerResponse) Err() error {
	if r.Success {
		return nil
	}
	sentinel := ErrSourceFailure
	switch r.ErrorKind {
	case KindTimeout:
		sentinel = ErrTimeout
	case KindNotFound:
		sentinel = ErrElementNotFound
	case KindInvalid:
		sentinel = ErrInvalidInput
	}
	if r.Error == "" || r.Error == sentinel.Error() {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, r.Error)
}
