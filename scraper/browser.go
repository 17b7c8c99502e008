// Package scraper drives a headless Chromium through go-rod to read article
// pages on Fedlex and search results on entscheidsuche.ch.
package scraper

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

const (
	defaultLocale = "fr-FR"

	hideWebdriverScript = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`
)

// BrowserConfig controls how Chromium is launched.
type BrowserConfig struct {
	Bin       string
	Headless  bool
	UserAgent string
}

// Browser is a lazily launched Chromium instance. Every page gets its own
// incognito context.
type Browser struct {
	cfg    BrowserConfig
	logger *zap.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewBrowser creates a browser handle; Chromium starts on first use.
func NewBrowser(cfg BrowserConfig, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{cfg: cfg, logger: logger}
}

func (b *Browser) start(ctx context.Context) (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().
		Context(ctx).
		Headless(b.cfg.Headless).
		NoSandbox(true).
		Set(flags.Flag("lang"), defaultLocale).
		Set(flags.Flag("disable-dev-shm-usage")).
		Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	if b.cfg.Bin != "" {
		l = l.Bin(b.cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	b.launcher = l
	b.browser = browser
	b.logger.Debug("browser started", zap.String("control_url", controlURL))
	return browser, nil
}

// NewPage opens a blank page in a fresh incognito context with automation
// markers hidden and a French locale. release closes the page and its context.
func (b *Browser) NewPage(ctx context.Context) (page *rod.Page, release func(), err error) {
	browser, err := b.start(ctx)
	if err != nil {
		return nil, nil, err
	}

	incognito, err := browser.Incognito()
	if err != nil {
		return nil, nil, fmt.Errorf("incognito context: %w", err)
	}
	release = func() {
		if err := incognito.Close(); err != nil {
			b.logger.Debug("close incognito context", zap.Error(err))
		}
	}

	page, err = incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("create page: %w", err)
	}

	if _, err := page.EvalOnNewDocument(hideWebdriverScript); err != nil {
		release()
		return nil, nil, fmt.Errorf("install init script: %w", err)
	}
	if err := (proto.EmulationSetLocaleOverride{Locale: defaultLocale}).Call(page); err != nil {
		b.logger.Debug("locale override rejected", zap.Error(err))
	}
	if b.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      b.cfg.UserAgent,
			AcceptLanguage: defaultLocale,
		}); err != nil {
			b.logger.Debug("user agent override rejected", zap.Error(err))
		}
	}

	return page.Context(ctx), release, nil
}

// Close shuts Chromium down.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.launcher.Cleanup()
	b.browser = nil
	b.launcher = nil
	return err
}
