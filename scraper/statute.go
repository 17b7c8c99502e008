package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"lextutor-backend/fetcher"
	"lextutor-backend/models"
)

const defaultPageTimeout = 30 * time.Second

// StatuteScraper loads one article per attempt from its Fedlex deep link.
type StatuteScraper struct {
	browser *Browser
	timeout time.Duration
	logger  *zap.Logger
}

// NewStatuteScraper creates a scraper. A non-positive timeout uses 30s.
func NewStatuteScraper(browser *Browser, timeout time.Duration, logger *zap.Logger) *StatuteScraper {
	if timeout <= 0 {
		timeout = defaultPageTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatuteScraper{browser: browser, timeout: timeout, logger: logger}
}

// FetchArticle navigates to the article anchor and waits for the article
// element to render.
func (s *StatuteScraper) FetchArticle(ctx context.Context, req fetcher.ArticleRequest) (models.ArticleContent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, release, err := s.browser.NewPage(ctx)
	if err != nil {
		return models.ArticleContent{}, fmt.Errorf("%w: %v", fetcher.ErrSourceFailure, err)
	}
	defer release()

	anchor := ArticleAnchor(req.ArticleNumber)
	target := req.SourceURL + "#" + anchor
	log := s.logger.With(zap.String("url", target))

	wait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := page.Navigate(target); err != nil {
		return models.ArticleContent{}, classify(err, "navigate")
	}
	wait()

	el, err := page.Element("#" + anchor)
	if err != nil {
		s.describeMissing(ctx, page, log)
		if errors.Is(err, context.DeadlineExceeded) {
			return models.ArticleContent{}, fmt.Errorf("%w: #%s", fetcher.ErrElementNotFound, anchor)
		}
		return models.ArticleContent{}, classify(err, "find article")
	}

	markup, err := el.HTML()
	if err != nil {
		return models.ArticleContent{}, classify(err, "read article")
	}

	title, content, err := FormatArticle(markup, anchor, req.LawTitle, req.ArticleNumber)
	if err != nil {
		return models.ArticleContent{}, err
	}
	log.Debug("article extracted", zap.String("title", title))

	return models.ArticleContent{
		LawCode:       req.LawCode,
		ArticleNumber: req.ArticleNumber,
		Title:         title,
		Content:       content,
		Success:       true,
	}, nil
}

// describeMissing logs what the page showed instead of the article.
func (s *StatuteScraper) describeMissing(ctx context.Context, page *rod.Page, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	markup, err := page.Context(ctx).HTML()
	if err != nil {
		return
	}
	if p, err := fetcher.DecodePayload(fetcher.FormatHTML, []byte(markup)); err == nil {
		log.Debug("article element missing", zap.String("page_title", p.Title))
	}
}

func classify(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", fetcher.ErrTimeout, op)
	}
	return fmt.Errorf("%w: %s: %v", fetcher.ErrSourceFailure, op, err)
}
