package fetcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lextutor-backend/models"
)

// DefaultMaxResults caps the entries kept per keyword.
const DefaultMaxResults = 20

// JurisprudenceFetcher searches case law for a keyword. A session that times
// out waiting for results is rerun after a pause; once attempts are exhausted
// the failure is logged and yields an empty list.
type JurisprudenceFetcher struct {
	source     CaseLawSource
	maxResults int
	maxRetries int
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *zap.Logger
}

// JurisprudenceOption configures a JurisprudenceFetcher.
type JurisprudenceOption func(*JurisprudenceFetcher)

// JurisprudenceWithMaxResults sets the per-keyword cap.
func JurisprudenceWithMaxResults(n int) JurisprudenceOption {
	return func(f *JurisprudenceFetcher) {
		if n > 0 {
			f.maxResults = n
		}
	}
}

// JurisprudenceWithRetries sets the session attempts and the pause between them.
func JurisprudenceWithRetries(maxRetries int, delay time.Duration) JurisprudenceOption {
	return func(f *JurisprudenceFetcher) {
		if maxRetries > 0 {
			f.maxRetries = maxRetries
		}
		f.retryDelay = delay
	}
}

// JurisprudenceWithLogger sets the logger.
func JurisprudenceWithLogger(logger *zap.Logger) JurisprudenceOption {
	return func(f *JurisprudenceFetcher) {
		f.logger = logger
	}
}

// NewJurisprudenceFetcher creates a fetcher backed by source.
func NewJurisprudenceFetcher(source CaseLawSource, opts ...JurisprudenceOption) *JurisprudenceFetcher {
	f := &JurisprudenceFetcher{
		source:     source,
		maxResults: DefaultMaxResults,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		sleep:      sleepContext,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Search returns deduplicated case summaries for keyword, never nil.
func (f *JurisprudenceFetcher) Search(ctx context.Context, keyword string) []models.JurisprudenceEntry {
	normalized := NormalizeKeyword(keyword)
	if normalized == "" {
		return []models.JurisprudenceEntry{}
	}

	log := f.logger.With(zap.String("keyword", normalized))
	entries, err := f.searchWithRetry(ctx, normalized, log)
	if err != nil {
		log.Warn("case-law search failed", zap.Error(err))
		return []models.JurisprudenceEntry{}
	}
	if len(entries) == 0 {
		log.Info("no case law found")
	}
	return DedupeEntries(entries, f.maxResults)
}

func (f *JurisprudenceFetcher) searchWithRetry(ctx context.Context, keyword string, log *zap.Logger) ([]models.JurisprudenceEntry, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		entries, err := f.source.SearchCaseLaw(ctx, keyword)
		if err == nil {
			return entries, nil
		}
		lastErr = err
		if ctx.Err() != nil || !Retryable(err) {
			return nil, err
		}

		log.Warn("waiting for case-law results timed out",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", f.maxRetries),
			zap.Error(err))

		if attempt < f.maxRetries {
			if err := f.sleep(ctx, f.retryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}
