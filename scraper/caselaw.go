package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lextutor-backend/fetcher"
	"lextutor-backend/models"
)

const (
	// SearchURL is the case-law search engine entry page.
	SearchURL = "https://beta.entscheidsuche.ch/"

	searchInputSelector = "input.form-control"
	resultSelector      = "div.result-item"
)

// ArtifactStore keeps diagnostic screenshots.
type ArtifactStore interface {
	Upload(ctx context.Context, id uuid.UUID, filename string, data io.Reader) (string, error)
}

// errNoResultMarker reports a session whose result list never appeared. It is
// a timeout so the caller may rerun the session.
var errNoResultMarker = fmt.Errorf("%w: no result marker", fetcher.ErrTimeout)

// CaseLawConfig tunes one search session.
type CaseLawConfig struct {
	WaitTimeout time.Duration
	Scrolls     int
	ScrollDelay time.Duration
	MaxResults  int
	KeyDelay    time.Duration
}

// DefaultCaseLawConfig returns the session settings used in production.
func DefaultCaseLawConfig() CaseLawConfig {
	return CaseLawConfig{
		WaitTimeout: 60 * time.Second,
		Scrolls:     3,
		ScrollDelay: 2 * time.Second,
		MaxResults:  fetcher.DefaultMaxResults,
		KeyDelay:    100 * time.Millisecond,
	}
}

// CaseLawScraper searches entscheidsuche.ch the way a person would: type the
// query, wait for results, scroll to load more, read the result cards.
type CaseLawScraper struct {
	browser   *Browser
	cfg       CaseLawConfig
	artifacts ArtifactStore
	logger    *zap.Logger
}

// NewCaseLawScraper creates a scraper. artifacts may be nil.
func NewCaseLawScraper(browser *Browser, cfg CaseLawConfig, artifacts ArtifactStore, logger *zap.Logger) *CaseLawScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseLawScraper{browser: browser, cfg: cfg, artifacts: artifacts, logger: logger}
}

// SearchCaseLaw runs one search session for keyword.
func (s *CaseLawScraper) SearchCaseLaw(ctx context.Context, keyword string) ([]models.JurisprudenceEntry, error) {
	page, release, err := s.browser.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fetcher.ErrSourceFailure, err)
	}
	defer release()

	log := s.logger.With(zap.String("keyword", keyword))

	entries, err := s.search(ctx, page, keyword)
	if errors.Is(err, errNoResultMarker) {
		log.Warn("waiting for results timed out", zap.Duration("wait", s.cfg.WaitTimeout))
		s.screenshot(ctx, page, "no_results_screenshot.png")
		return nil, err
	}
	if err != nil {
		log.Warn("case-law search failed", zap.Error(err))
		s.screenshot(ctx, page, "error_screenshot.png")
		return nil, err
	}
	if len(entries) == 0 {
		log.Info("no case law extracted")
		s.screenshot(ctx, page, "no_results_screenshot.png")
		return []models.JurisprudenceEntry{}, nil
	}
	log.Info("case law extracted", zap.Int("count", len(entries)))
	return entries, nil
}

func (s *CaseLawScraper) search(ctx context.Context, page *rod.Page, keyword string) ([]models.JurisprudenceEntry, error) {
	wait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err := page.Navigate(SearchURL); err != nil {
		return nil, classify(err, "navigate")
	}
	wait()

	field, err := page.Element(searchInputSelector)
	if err != nil {
		return nil, classify(err, "find search field")
	}
	if err := s.typeSlowly(ctx, field, keyword); err != nil {
		return nil, classify(err, "type query")
	}
	if err := field.Type(input.Enter); err != nil {
		return nil, classify(err, "submit query")
	}

	if err := s.waitForResults(ctx, page); err != nil {
		return nil, err
	}

	for i := 0; i < s.cfg.Scrolls; i++ {
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return nil, classify(err, "scroll")
		}
		if err := sleep(ctx, s.cfg.ScrollDelay); err != nil {
			return nil, err
		}
	}

	markup, err := page.HTML()
	if err != nil {
		return nil, classify(err, "read results")
	}
	return ExtractResults(markup, SearchURL, s.cfg.MaxResults)
}

func (s *CaseLawScraper) typeSlowly(ctx context.Context, field *rod.Element, text string) error {
	if err := field.Focus(); err != nil {
		return err
	}
	for _, r := range text {
		if err := field.Input(string(r)); err != nil {
			return err
		}
		jitter := time.Duration(0)
		if s.cfg.KeyDelay > 0 {
			jitter = rand.N(s.cfg.KeyDelay)
		}
		if err := sleep(ctx, s.cfg.KeyDelay/2+jitter); err != nil {
			return err
		}
	}
	return nil
}

func (s *CaseLawScraper) waitForResults(ctx context.Context, page *rod.Page) error {
	wctx, cancel := context.WithTimeout(ctx, s.cfg.WaitTimeout)
	defer cancel()
	_, err := page.Context(wctx).Element(resultSelector)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return errNoResultMarker
	default:
		return classify(err, "wait for results")
	}
}

func (s *CaseLawScraper) screenshot(ctx context.Context, page *rod.Page, name string) {
	if s.artifacts == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	img, err := page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		s.logger.Debug("screenshot failed", zap.Error(err))
		return
	}
	path, err := s.artifacts.Upload(ctx, uuid.New(), name, bytes.NewReader(img))
	if err != nil {
		s.logger.Warn("store screenshot", zap.Error(err))
		return
	}
	s.logger.Info("diagnostic screenshot stored", zap.String("path", path))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
