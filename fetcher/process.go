package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"lextutor-backend/models"
)

const (
	defaultMaxProcs       = 4
	defaultProcessTimeout = 5 * time.Minute
)

// ProcessSource runs each browser session in a separate extraction worker
// process, so a crashed or wedged browser never takes the server down.
// The number of concurrent workers is bounded.
type ProcessSource struct {
	bin     string
	args    []string
	env     []string
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *zap.Logger
}

// ProcessOption configures a ProcessSource.
type ProcessOption func(*ProcessSource)

// ProcessWithMaxProcs bounds the number of concurrent workers.
func ProcessWithMaxProcs(n int) ProcessOption {
	return func(s *ProcessSource) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// ProcessWithTimeout bounds the lifetime of one worker.
func ProcessWithTimeout(d time.Duration) ProcessOption {
	return func(s *ProcessSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// ProcessWithArgs sets arguments placed before the subcommand.
func ProcessWithArgs(args ...string) ProcessOption {
	return func(s *ProcessSource) {
		s.args = append([]string(nil), args...)
	}
}

// ProcessWithEnv adds environment variables to the worker environment.
func ProcessWithEnv(env ...string) ProcessOption {
	return func(s *ProcessSource) {
		s.env = append(s.env, env...)
	}
}

// ProcessWithLogger sets the logger.
func ProcessWithLogger(logger *zap.Logger) ProcessOption {
	return func(s *ProcessSource) {
		s.logger = logger
	}
}

// NewProcessSource creates a source that executes bin for every extraction.
func NewProcessSource(bin string, opts ...ProcessOption) *ProcessSource {
	s := &ProcessSource{
		bin:     bin,
		sem:     semaphore.NewWeighted(defaultMaxProcs),
		timeout: defaultProcessTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchArticle runs one article extraction in a worker. Positional values
// follow "--" so a leading dash is never read as a flag.
func (s *ProcessSource) FetchArticle(ctx context.Context, req ArticleRequest) (models.ArticleContent, error) {
	resp, err := s.run(ctx, "statute",
		"--title", req.LawTitle,
		"--url", req.SourceURL,
		"--", req.LawCode, req.ArticleNumber)
	if err != nil {
		return models.ArticleContent{}, err
	}
	if resp.Article == nil {
		return models.ArticleContent{}, fmt.Errorf("%w: worker returned no article", ErrSourceFailure)
	}
	return *resp.Article, nil
}

// SearchCaseLaw runs one case-law search session in a worker.
func (s *ProcessSource) SearchCaseLaw(ctx context.Context, keyword string) ([]models.JurisprudenceEntry, error) {
	resp, err := s.run(ctx, "jurisprudence", "--", keyword)
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (s *ProcessSource) run(ctx context.Context, args ...string) (WorkerResponse, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return WorkerResponse{}, err
	}
	defer s.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	argv := append(append([]string(nil), s.args...), args...)
	cmd := exec.CommandContext(ctx, s.bin, argv...)
	cmd.Env = append(os.Environ(), s.env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	s.logger.Debug("extraction worker finished",
		zap.Strings("args", args),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(runErr))

	payload, err := DecodePayload(FormatJSON, stdout.Bytes())
	if err != nil {
		if ctx.Err() != nil {
			return WorkerResponse{}, fmt.Errorf("%w: worker: %v", ErrTimeout, ctx.Err())
		}
		if runErr != nil {
			return WorkerResponse{}, fmt.Errorf("%w: worker: %v: %s", ErrSourceFailure, runErr, tail(stderr.String()))
		}
		return WorkerResponse{}, fmt.Errorf("%w: worker output: %v", ErrSourceFailure, err)
	}

	var resp WorkerResponse
	if err := payload.Unmarshal(&resp); err != nil {
		return WorkerResponse{}, fmt.Errorf("%w: worker output: %v", ErrSourceFailure, err)
	}
	if err := resp.Err(); err != nil {
		return WorkerResponse{}, err
	}
	return resp, nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	const max = 512
	if len(s) > max {
		return s[len(s)-max:]
	}
	return s
}
