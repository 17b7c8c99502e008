package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lextutor-backend/models"
	"lextutor-backend/parser"
)

var (
	ErrEmptyQuestion   = errors.New("question is required")
	ErrArticleNotFound = errors.New("article not found")
)

// Analyzer produces the raw model analysis for a question.
type Analyzer interface {
	Analyze(ctx context.Context, q models.Question) models.AnalysisResult
}

// AnalysisParser splits raw model output into typed sections.
type AnalysisParser interface {
	Parse(raw string) models.ParsedAnalysis
}

// ArticleFetcher retrieves one article; failures come back as unsuccessful content.
type ArticleFetcher interface {
	Fetch(ctx context.Context, lawCode, articleNumber string) models.ArticleContent
}

// JurisprudenceSearcher retrieves case summaries for one keyword; failures
// come back as an empty list.
type JurisprudenceSearcher interface {
	Search(ctx context.Context, keyword string) []models.JurisprudenceEntry
}

// QuestionRecorder persists processed questions.
type QuestionRecorder interface {
	Create(ctx context.Context, record *models.QuestionRecord) error
}

// EmitFunc receives stream messages in order. A non-nil error stops further
// emission but not the processing itself.
type EmitFunc func(models.StreamMessage) error

// QuestionService runs the question pipeline: analysis, parsing, then
// concurrent article and case-law retrieval merged into one result.
type QuestionService struct {
	analyzer      Analyzer
	parser        AnalysisParser
	articles      ArticleFetcher
	jurisprudence JurisprudenceSearcher
	recorder      QuestionRecorder
	logger        *zap.Logger
}

// QuestionServiceOption is a functional option for QuestionService
type QuestionServiceOption func(*QuestionService)

// QuestionWithAnalyzer sets the model client
func QuestionWithAnalyzer(a Analyzer) QuestionServiceOption {
	return func(s *QuestionService) {
		s.analyzer = a
	}
}

// QuestionWithParser sets the response parser
func QuestionWithParser(p AnalysisParser) QuestionServiceOption {
	return func(s *QuestionService) {
		s.parser = p
	}
}

// QuestionWithArticleFetcher sets the statute fetcher
func QuestionWithArticleFetcher(f ArticleFetcher) QuestionServiceOption {
	return func(s *QuestionService) {
		s.articles = f
	}
}

// QuestionWithJurisprudenceSearcher sets the case-law fetcher
func QuestionWithJurisprudenceSearcher(j JurisprudenceSearcher) QuestionServiceOption {
	return func(s *QuestionService) {
		s.jurisprudence = j
	}
}

// QuestionWithRecorder sets the question log repository
func QuestionWithRecorder(r QuestionRecorder) QuestionServiceOption {
	return func(s *QuestionService) {
		s.recorder = r
	}
}

// QuestionWithLogger sets the logger
func QuestionWithLogger(logger *zap.Logger) QuestionServiceOption {
	return func(s *QuestionService) {
		s.logger = logger
	}
}

// NewQuestionService creates a new question service
func NewQuestionService(opts ...QuestionServiceOption) *QuestionService {
	s := &QuestionService{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.parser == nil {
		s.parser = parser.NewResponseParser(nil)
	}
	return s
}

// ProcessQuestion answers q. The result either carries a single top-level
// Error (the model call failed) or a best-effort aggregate whose article and
// case-law slots may fail individually.
func (s *QuestionService) ProcessQuestion(ctx context.Context, q models.Question) *models.AggregateResult {
	return s.ProcessQuestionStream(ctx, q, nil)
}

// ProcessQuestionStream answers q and pushes messages to emit as the pipeline
// advances: assistantResponse and analysis once parsed, then every article,
// every case summary, and complete. A failed analysis emits one error message.
func (s *QuestionService) ProcessQuestionStream(ctx context.Context, q models.Question, emit EmitFunc) *models.AggregateResult {
	start := time.Now()
	out := newEmitter(emit)
	log := s.logger.With(zap.Int("keywords", len(q.Keywords)))

	result := s.process(ctx, q, out, log)
	if result.Failed() {
		out.send(models.MessageError, result.Error)
	} else {
		out.send(models.MessageComplete, "processing complete")
	}

	log.Info("question processed",
		zap.Bool("failed", result.Failed()),
		zap.Int("articles", len(result.Articles)),
		zap.Int("jurisprudence", len(result.Jurisprudence)),
		zap.Duration("elapsed", time.Since(start)))

	s.record(ctx, q, result, log)
	return result
}

func (s *QuestionService) process(ctx context.Context, q models.Question, out *emitter, log *zap.Logger) *models.AggregateResult {
	if q.Text == "" {
		return &models.AggregateResult{Error: ErrEmptyQuestion.Error()}
	}

	analysis := s.analyzer.Analyze(ctx, q)
	if analysis.Failed() {
		log.Warn("analysis failed", zap.String("error", analysis.Error))
		return &models.AggregateResult{Error: analysis.Error}
	}

	parsed := s.parser.Parse(analysis.Text)
	out.send(models.MessageAssistantResponse, analysis.Text)
	out.send(models.MessageAnalysis, &parsed)

	articles, entries := s.gather(ctx, parsed.ValidArticles(), q.Keywords)
	for _, a := range articles {
		out.send(models.MessageArticle, a)
	}
	for _, e := range entries {
		out.send(models.MessageJurisprudence, e)
	}

	return &models.AggregateResult{
		AssistantResponse: analysis.Text,
		Analysis:          &parsed,
		Articles:          articles,
		Jurisprudence:     entries,
	}
}

type articleSlot struct {
	lawCode string
	number  string
	failure string
}

// planArticles expands every reference into single-article slots in citation
// order. A reference that cannot be expanded keeps one failed slot.
func planArticles(refs []models.ArticleReference) []articleSlot {
	slots := make([]articleSlot, 0, len(refs))
	for _, ref := range refs {
		numbers, err := parser.ExpandArticleRange(ref.ArticleNumber)
		if err != nil {
			slots = append(slots, articleSlot{
				lawCode: ref.LawCode,
				number:  ref.ArticleNumber,
				failure: err.Error(),
			})
			continue
		}
		for _, n := range numbers {
			slots = append(slots, articleSlot{lawCode: ref.LawCode, number: n})
		}
	}
	return slots
}

// gather runs every article fetch and keyword search concurrently. Fetches
// are detached from ctx cancellation and a failure never affects siblings.
func (s *QuestionService) gather(ctx context.Context, refs []models.ArticleReference, keywords []string) ([]models.ArticleContent, []models.JurisprudenceEntry) {
	ctx = context.WithoutCancel(ctx)

	slots := planArticles(refs)
	articles := make([]models.ArticleContent, len(slots))
	perKeyword := make([][]models.JurisprudenceEntry, len(keywords))

	var g errgroup.Group
	for i, slot := range slots {
		if slot.failure != "" {
			articles[i] = models.FailedArticle(slot.lawCode, slot.number, slot.failure)
			continue
		}
		g.Go(func() error {
			articles[i] = s.articles.Fetch(ctx, slot.lawCode, slot.number)
			return nil
		})
	}
	for i, kw := range keywords {
		g.Go(func() error {
			perKeyword[i] = s.jurisprudence.Search(ctx, kw)
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]models.JurisprudenceEntry, 0)
	for _, list := range perKeyword {
		entries = append(entries, list...)
	}
	return articles, entries
}

// FetchArticle looks up one article or an inclusive range of articles
// directly, without running the analysis. It fails with ErrArticleNotFound
// when no article of the range could be retrieved.
func (s *QuestionService) FetchArticle(ctx context.Context, lawCode, articleNumber string) ([]models.ArticleContent, error) {
	numbers, err := parser.ExpandArticleRange(articleNumber)
	if err != nil {
		return nil, err
	}

	articles := make([]models.ArticleContent, len(numbers))
	var g errgroup.Group
	for i, n := range numbers {
		g.Go(func() error {
			articles[i] = s.articles.Fetch(ctx, lawCode, n)
			return nil
		})
	}
	_ = g.Wait()

	for _, a := range articles {
		if a.Success {
			return articles, nil
		}
	}
	if len(articles) == 1 {
		return articles, fmt.Errorf("%w: %s", ErrArticleNotFound, articles[0].Error)
	}
	return articles, ErrArticleNotFound
}

func (s *QuestionService) record(ctx context.Context, q models.Question, result *models.AggregateResult, log *zap.Logger) {
	if s.recorder == nil {
		return
	}
	rec := models.NewQuestionRecord(q, result)
	if err := s.recorder.Create(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn("failed to record question", zap.Error(err))
	}
}

type emitter struct {
	emit    EmitFunc
	stopped bool
}

func newEmitter(emit EmitFunc) *emitter {
	return &emitter{emit: emit}
}

func (e *emitter) send(t models.MessageType, data interface{}) {
	if e.emit == nil || e.stopped {
		return
	}
	if err := e.emit(models.StreamMessage{Type: t, Data: data}); err != nil {
		e.stopped = true
	}
}
