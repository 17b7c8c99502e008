package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"lextutor-backend/lawcode"
	"lextutor-backend/models"
	"lextutor-backend/parser"
)

const (
	defaultMaxRetries  = 3
	defaultRetryDelay  = 5 * time.Second
	defaultMinInterval = time.Second
)

// LawCodes resolves law designations and looks up their source locators.
type LawCodes interface {
	Resolve(raw string) (string, bool)
	Lookup(code string) (lawcode.LawCode, bool)
}

// StatuteFetcher retrieves article texts from the federal statute source.
// It never fails: every problem is reported as an unsuccessful ArticleContent.
type StatuteFetcher struct {
	codes   LawCodes
	source  ArticleSource
	cache   *ArticleCache
	limiter *RateLimiter
	logger  *zap.Logger

	maxRetries int
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// StatuteOption configures a StatuteFetcher.
type StatuteOption func(*StatuteFetcher)

// StatuteWithCache sets the article cache.
func StatuteWithCache(cache *ArticleCache) StatuteOption {
	return func(f *StatuteFetcher) {
		f.cache = cache
	}
}

// StatuteWithRateLimiter sets the limiter shared by all requests to the statute host.
func StatuteWithRateLimiter(limiter *RateLimiter) StatuteOption {
	return func(f *StatuteFetcher) {
		f.limiter = limiter
	}
}

// StatuteWithRetries sets the attempt bound and the delay between attempts.
func StatuteWithRetries(maxRetries int, delay time.Duration) StatuteOption {
	return func(f *StatuteFetcher) {
		if maxRetries > 0 {
			f.maxRetries = maxRetries
		}
		f.retryDelay = delay
	}
}

// StatuteWithLogger sets the logger.
func StatuteWithLogger(logger *zap.Logger) StatuteOption {
	return func(f *StatuteFetcher) {
		f.logger = logger
	}
}

// NewStatuteFetcher creates a fetcher for the given code table and page source.
func NewStatuteFetcher(codes LawCodes, source ArticleSource, opts ...StatuteOption) *StatuteFetcher {
	f := &StatuteFetcher{
		codes:      codes,
		source:     source,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		logger:     zap.NewNop(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.cache == nil {
		f.cache = NewArticleCache(DefaultCacheSize)
	}
	if f.limiter == nil {
		f.limiter = NewRateLimiter(defaultMinInterval)
	}
	return f
}

// Cache exposes the article cache.
func (f *StatuteFetcher) Cache() *ArticleCache {
	return f.cache
}

// Fetch returns the text of one article. lawCode may be a canonical code or any
// designation the code table resolves.
func (f *StatuteFetcher) Fetch(ctx context.Context, lawCode, articleNumber string) models.ArticleContent {
	number := strings.ToLower(strings.TrimSpace(articleNumber))
	if !parser.IsSingleArticle(number) {
		return models.FailedArticle(lawCode, articleNumber, "invalid article number")
	}

	code, ok := f.codes.Resolve(lawCode)
	if !ok {
		return models.FailedArticle(lawCode, number, fmt.Sprintf("unrecognized law code: %s", lawCode))
	}
	entry, ok := f.codes.Lookup(code)
	if !ok || entry.URL == "" {
		return models.FailedArticle(code, number, fmt.Sprintf("no source locator for law code: %s", code))
	}

	key := models.ArticleKey{LawCode: code, ArticleNumber: number}
	return f.cache.Do(ctx, key, func(ctx context.Context) models.ArticleContent {
		return f.fetchWithRetry(ctx, ArticleRequest{
			LawCode:       code,
			LawTitle:      entry.Title,
			SourceURL:     entry.URL,
			ArticleNumber: number,
		})
	})
}

func (f *StatuteFetcher) fetchWithRetry(ctx context.Context, req ArticleRequest) models.ArticleContent {
	log := f.logger.With(zap.String("law_code", req.LawCode), zap.String("article", req.ArticleNumber))

	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if err := f.limiter.Acquire(ctx); err != nil {
			return models.FailedArticle(req.LawCode, req.ArticleNumber, err.Error())
		}

		content, err := f.source.FetchArticle(ctx, req)
		if err == nil {
			content.LawCode = req.LawCode
			content.ArticleNumber = req.ArticleNumber
			content.Success = true
			content.Error = ""
			log.Debug("article fetched", zap.Int("attempt", attempt))
			return content
		}

		lastErr = err
		if !Retryable(err) {
			log.Warn("article fetch failed", zap.Error(err))
			return models.FailedArticle(req.LawCode, req.ArticleNumber, err.Error())
		}

		log.Warn("article fetch attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", f.maxRetries),
			zap.Error(err))

		if attempt < f.maxRetries {
			if err := f.sleep(ctx, f.retryDelay); err != nil {
				return models.FailedArticle(req.LawCode, req.ArticleNumber, err.Error())
			}
		}
	}

	return models.FailedArticle(req.LawCode, req.ArticleNumber,
		fmt.Sprintf("maximum attempts reached: %v", lastErr))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
