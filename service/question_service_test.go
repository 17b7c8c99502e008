package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lextutor-backend/lawcode"
	"lextutor-backend/models"
	"lextutor-backend/parser"
)

const sampleAnalysis = `**Domaine(s) juridique(s) :** Droit du bail, Droit des obligations

**Articles de Loi :**
- art. 266g CO : Résiliation pour justes motifs.
- art. 271 CO : Protection contre les congés abusifs.
- art. 8 CC : Fardeau de la preuve.

**Résumé :** Le locataire peut résilier le bail de manière anticipée pour de justes motifs.`

type stubAnalyzer struct {
	result models.AnalysisResult
	calls  int
}

func (a *stubAnalyzer) Analyze(ctx context.Context, q models.Question) models.AnalysisResult {
	a.calls++
	return a.result
}

type stubArticles struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
	delay map[string]time.Duration
}

func (f *stubArticles) Fetch(ctx context.Context, lawCode, number string) models.ArticleContent {
	key := lawCode + "-" + number
	if d := f.delay[key]; d > 0 {
		time.Sleep(d)
	}
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	if f.fail[key] {
		return models.FailedArticle(lawCode, number, "maximum attempts reached: page load timed out")
	}
	return models.ArticleContent{LawCode: lawCode, ArticleNumber: number, Title: "Art. " + number, Content: "<p>...</p>", Success: true}
}

func (f *stubArticles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type stubJurisprudence struct {
	mu    sync.Mutex
	calls []string
	delay map[string]time.Duration
}

func (j *stubJurisprudence) Search(ctx context.Context, keyword string) []models.JurisprudenceEntry {
	if d := j.delay[keyword]; d > 0 {
		time.Sleep(d)
	}
	j.mu.Lock()
	j.calls = append(j.calls, keyword)
	j.mu.Unlock()
	return []models.JurisprudenceEntry{{Title: "ATF " + keyword, Link: "https://example.test/" + keyword}}
}

type memoryRecorder struct {
	records []*models.QuestionRecord
	err     error
}

func (r *memoryRecorder) Create(ctx context.Context, record *models.QuestionRecord) error {
	r.records = append(r.records, record)
	return r.err
}

func newTestQuestionService(t *testing.T, analyzer Analyzer, articles ArticleFetcher, juris JurisprudenceSearcher, opts ...QuestionServiceOption) *QuestionService {
	t.Helper()
	reg, err := lawcode.Default()
	require.NoError(t, err)
	base := []QuestionServiceOption{
		QuestionWithAnalyzer(analyzer),
		QuestionWithParser(parser.NewResponseParser(reg)),
		QuestionWithArticleFetcher(articles),
		QuestionWithJurisprudenceSearcher(juris),
	}
	return NewQuestionService(append(base, opts...)...)
}

func TestProcessQuestionAnalysisFailure(t *testing.T) {
	articles := &stubArticles{}
	juris := &stubJurisprudence{}
	s := newTestQuestionService(t, &stubAnalyzer{result: models.AnalysisResult{Error: "analysis failed: quota exceeded"}}, articles, juris)

	got := s.ProcessQuestion(context.Background(), models.NewQuestion("Puis-je résilier ?", []string{"bail", "congé"}))

	require.True(t, got.Failed())
	assert.Equal(t, "analysis failed: quota exceeded", got.Error)
	assert.Nil(t, got.Analysis)
	assert.Zero(t, articles.count())
	assert.Empty(t, juris.calls)
}

func TestProcessQuestionPreservesOrder(t *testing.T) {
	articles := &stubArticles{
		fail:  map[string]bool{"CO-271": true},
		delay: map[string]time.Duration{"CO-266g": 30 * time.Millisecond},
	}
	juris := &stubJurisprudence{delay: map[string]time.Duration{"bail": 20 * time.Millisecond}}
	s := newTestQuestionService(t, &stubAnalyzer{result: models.AnalysisResult{Text: sampleAnalysis}}, articles, juris)

	got := s.ProcessQuestion(context.Background(), models.NewQuestion("Puis-je résilier ?", []string{"bail", "congé"}))

	require.False(t, got.Failed())
	assert.Equal(t, sampleAnalysis, got.AssistantResponse)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, "Droit du bail, Droit des obligations", got.Analysis.LegalDomains)

	require.Len(t, got.Articles, 3)
	assert.Equal(t, "266g", got.Articles[0].ArticleNumber)
	assert.True(t, got.Articles[0].Success)
	assert.Equal(t, "271", got.Articles[1].ArticleNumber)
	assert.False(t, got.Articles[1].Success)
	assert.NotEmpty(t, got.Articles[1].Error)
	assert.Equal(t, "CC", got.Articles[2].LawCode)
	assert.True(t, got.Articles[2].Success)

	require.Len(t, got.Jurisprudence, 2)
	assert.Equal(t, "ATF bail", got.Jurisprudence[0].Title)
	assert.Equal(t, "ATF congé", got.Jurisprudence[1].Title)
}

func TestProcessQuestionExpandsRanges(t *testing.T) {
	text := "Domaine juridique : Droit du travail\n\nArticles de loi :\n- art. 335-335c CO : Résiliation.\n- art. 10-12 CO : Plage simple.\n- art. 60-1 CO : Plage inversée.\n\nRésumé : Court."
	articles := &stubArticles{}
	s := newTestQuestionService(t, &stubAnalyzer{result: models.AnalysisResult{Text: text}}, articles, &stubJurisprudence{})

	got := s.ProcessQuestion(context.Background(), models.NewQuestion("q", nil))

	require.False(t, got.Failed())
	numbers := make([]string, len(got.Articles))
	for i, a := range got.Articles {
		numbers[i] = a.ArticleNumber
	}
	assert.Equal(t, []string{"335-335c", "10", "11", "12", "60-1"}, numbers)
	assert.False(t, got.Articles[0].Success)
	assert.False(t, got.Articles[4].Success)
	assert.Equal(t, 3, articles.count())
	assert.Empty(t, got.Jurisprudence)
	assert.NotNil(t, got.Jurisprudence)
}

func TestProcessQuestionIsolatesOversizedRange(t *testing.T) {
	text := "Domaine juridique : Droit des obligations\n\nArticles de loi :\n- art. 0-9223372036854775807 CO : Plage démesurée.\n- art. 41 CO : Responsabilité.\n\nRésumé : Court."
	articles := &stubArticles{}
	s := newTestQuestionService(t, &stubAnalyzer{result: models.AnalysisResult{Text: text}}, articles, &stubJurisprudence{})

	got := s.ProcessQuestion(context.Background(), models.NewQuestion("q", nil))

	require.False(t, got.Failed())
	require.Len(t, got.Articles, 2)
	assert.Equal(t, "0-9223372036854775807", got.Articles[0].ArticleNumber)
	assert.False(t, got.Articles[0].Success)
	assert.Contains(t, got.Articles[0].Error, parser.ErrUnsupportedRange.Error())
	assert.True(t, got.Articles[1].Success)
	assert.Equal(t, 1, articles.count())
}

func TestProcessQuestionSkipsInvalidReferences(t *testing.T) {
	text := "Domaine juridique : Droit civil\n\nArticles de loi :\n- art. 1 XYZ : Loi inconnue.\n- ceci n'est pas un article\n- art. 2 CC : Bonne foi.\n\nRésumé : Court."
	articles := &stubArticles{}
	s := newTestQuestionService(t, &stubAnalyzer{result: models.AnalysisResult{Text: text}}, articles, &stubJurisprudence{})

	got := s.ProcessQuestion(context.Background(), models.NewQuestion("q", nil))

	require.Len(t, got.Analysis.CitedArticles, 3)
	require.Len(t, got.Articles, 1)
	assert.Equal(t, "CC-2", articles.calls[0])
}

func TestProcessQuestionStreamOrder(t *testing.T) {
	articles := &stubArticles{fail: map[string]bool{"CO-271": true}}
	s := newTestQuestionService(t, &stubAnalyzer{result: models.AnalysisResult{Text: sampleAnalysis}}, articles, &stubJurisprudence{})

	var types []models.MessageType
	s.ProcessQuestionStream(context.Background(), models.NewQuestion("q", []string{"bail", "congé"}), func(m models.StreamMessage) error {
		types = append(types, m.Type)
		return nil
	})

	assert.Equal(t, []models.MessageType{
		models.MessageAssistantResponse,
		models.MessageAnalysis,
		models.MessageArticle,
		models.MessageArticle,
		models.MessageArticle,
		models.MessageJurisprudence,
		models.MessageJurisprudence,
		models.MessageComplete,
	}, types)
}

func TestProcessQuestionStreamError(t *testing.T) {
	s := newTestQuestionService(t, &stubAnalyzer{result: models.AnalysisResult{Error: "analysis failed: boom"}}, &stubArticles{}, &stubJurisprudence{})

	var got []models.StreamMessage
	s.ProcessQuestionStream(context.Background(), models.NewQuestion("q", nil), func(m models.StreamMessage) error {
		got = append(got, m)
		return nil
	})

	require.Len(t, got, 1)
	assert.Equal(t, models.MessageError, got[0].Type)
	assert.Equal(t, "analysis failed: boom", got[0].Data)
}

func TestProcessQuestionStreamStopsOnSendFailure(t *testing.T) {
	articles := &stubArticles{}
	s := newTestQuestionService(t, &stubAnalyzer{result: models.AnalysisResult{Text: sampleAnalysis}}, articles, &stubJurisprudence{})

	sent := 0
	got := s.ProcessQuestionStream(context.Background(), models.NewQuestion("q", nil), func(m models.StreamMessage) error {
		sent++
		return errors.New("connection closed")
	})

	assert.Equal(t, 1, sent)
	assert.Len(t, got.Articles, 3)
	assert.Equal(t, 3, articles.count())
}

func TestProcessQuestionDetachesFetchesFromCancellation(t *testing.T) {
	articles := &stubArticles{}
	s := newTestQuestionService(t, &stubAnalyzer{result: models.AnalysisResult{Text: sampleAnalysis}}, articles, &stubJurisprudence{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := s.ProcessQuestion(ctx, models.NewQuestion("q", nil))

	assert.Len(t, got.Articles, 3)
	assert.Equal(t, 3, articles.count())
}

func TestProcessQuestionRecords(t *testing.T) {
	rec := &memoryRecorder{err: errors.New("db down")}
	s := newTestQuestionService(t, &stubAnalyzer{result: models.AnalysisResult{Text: sampleAnalysis}}, &stubArticles{}, &stubJurisprudence{},
		QuestionWithRecorder(rec))

	got := s.ProcessQuestion(context.Background(), models.NewQuestion("Puis-je résilier ?", []string{"bail"}))

	require.False(t, got.Failed())
	require.Len(t, rec.records, 1)
	assert.Equal(t, "Puis-je résilier ?", rec.records[0].Question)
	assert.Equal(t, models.QuestionStatusAnswered, rec.records[0].Status)
	assert.Len(t, rec.records[0].Result.Articles, 3)
}

func TestProcessQuestionEmpty(t *testing.T) {
	analyzer := &stubAnalyzer{}
	s := newTestQuestionService(t, analyzer, &stubArticles{}, &stubJurisprudence{})

	got := s.ProcessQuestion(context.Background(), models.NewQuestion("   ", nil))

	assert.Equal(t, ErrEmptyQuestion.Error(), got.Error)
	assert.Zero(t, analyzer.calls)
}

func TestFetchArticle(t *testing.T) {
	articles := &stubArticles{fail: map[string]bool{"CO-2": true}}
	s := newTestQuestionService(t, &stubAnalyzer{}, articles, &stubJurisprudence{})

	got, err := s.FetchArticle(context.Background(), "CO", "1-3")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Success)
	assert.False(t, got[1].Success)
	assert.Equal(t, "3", got[2].ArticleNumber)
}

func TestFetchArticleFailures(t *testing.T) {
	articles := &stubArticles{fail: map[string]bool{"CO-9": true}}
	s := newTestQuestionService(t, &stubAnalyzer{}, articles, &stubJurisprudence{})

	got, err := s.FetchArticle(context.Background(), "CO", "9")
	assert.ErrorIs(t, err, ErrArticleNotFound)
	require.Len(t, got, 1)
	assert.True(t, strings.Contains(err.Error(), "maximum attempts"))

	_, err = s.FetchArticle(context.Background(), "CO", "9-1")
	assert.ErrorIs(t, err, parser.ErrUnsupportedRange)

	_, err = s.FetchArticle(context.Background(), "CO", "0-9223372036854775807")
	assert.ErrorIs(t, err, parser.ErrUnsupportedRange)
}
