package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lextutor-backend/models"
)

const (
	defaultAnalysisAttempts = 3
	defaultAnalysisBase     = 4 * time.Second
	defaultAnalysisMax      = 10 * time.Second
)

// AnalysisService obtains the structured legal analysis for a question from
// the language model. Transient failures are retried with exponential backoff.
type AnalysisService struct {
	generator   ContentGenerator
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	logger      *zap.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithRetry sets the attempt bound and the backoff window
func AnalysisWithRetry(maxAttempts int, baseDelay, maxDelay time.Duration) AnalysisServiceOption {
	return func(s *AnalysisService) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		s.baseDelay = baseDelay
		s.maxDelay = maxDelay
	}
}

// AnalysisWithLogger sets the logger
func AnalysisWithLogger(logger *zap.Logger) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.logger = logger
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(generator ContentGenerator, opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{
		generator:   generator,
		maxAttempts: defaultAnalysisAttempts,
		baseDelay:   defaultAnalysisBase,
		maxDelay:    defaultAnalysisMax,
		logger:      zap.NewNop(),
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze sends the question to the model. It never returns an error: a
// failure after the last attempt is reported in the result's Error field.
func (s *AnalysisService) Analyze(ctx context.Context, q models.Question) models.AnalysisResult {
	prompt := UserPrompt(q)
	delay := s.baseDelay

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		text, err := s.generator.Generate(ctx, SystemPrompt, prompt)
		if err == nil {
			s.logger.Info("analysis received",
				zap.Int("attempt", attempt),
				zap.Int("length", len(text)))
			return models.AnalysisResult{Text: text}
		}

		lastErr = err
		s.logger.Warn("analysis attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.maxAttempts),
			zap.Error(err))

		if attempt == s.maxAttempts {
			break
		}
		if err := s.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
		delay *= 2
		if s.maxDelay > 0 && delay > s.maxDelay {
			delay = s.maxDelay
		}
	}

	return models.AnalysisResult{Error: "analysis failed: " + lastErr.Error()}
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
