// Package fetcher retrieves law articles from the statute source and case
// summaries from the case-law search, with retries, request spacing, caching
// and worker-process isolation of the browser automation.
package fetcher

import (
	"context"
	"errors"

	"lextutor-backend/models"
)

var (
	// ErrTimeout and ErrElementNotFound are the retryable failures of a page load.
	ErrTimeout         = errors.New("page load timed out")
	ErrElementNotFound = errors.New("element not found")
	ErrSourceFailure   = errors.New("source failure")
	ErrInvalidInput    = errors.New("invalid input")
)

// ArticleRequest addresses one article on the statute source.
type ArticleRequest struct {
	LawCode       string `json:"law_code"`
	LawTitle      string `json:"law_title"`
	SourceURL     string `json:"source_url"`
	ArticleNumber string `json:"article_number"`
}

// ArticleSource performs a single page-load attempt for one article.
type ArticleSource interface {
	FetchArticle(ctx context.Context, req ArticleRequest) (models.ArticleContent, error)
}

// CaseLawSource runs one search session on the case-law search engine.
type CaseLawSource interface {
	SearchCaseLaw(ctx context.Context, keyword string) ([]models.JurisprudenceEntry, error)
}

// Retryable reports whether a page-load failure is worth another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrElementNotFound) ||
		errors.Is(err, context.DeadlineExceeded)
}
