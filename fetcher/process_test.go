package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lextutor-backend/models"
)

const helperEnv = "LEXTUTOR_WANT_HELPER_PROCESS"

// TestHelperProcess stands in for the extraction worker binary.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}

	var resp WorkerResponse
	switch args[0] {
	case "statute":
		if args[len(args)-3] != "--" {
			fmt.Fprintln(os.Stderr, "unknown shorthand flag")
			os.Exit(1)
		}
		code, number := args[len(args)-2], args[len(args)-1]
		if number == "999" {
			resp = ErrorResponse(fmt.Errorf("%w: #art_999", ErrElementNotFound))
			break
		}
		resp = ArticleResponse(models.ArticleContent{
			LawCode:       code,
			ArticleNumber: number,
			Title:         "Art. " + number,
			Content:       "<h2>" + args[2] + "</h2>\n<p>text</p>",
		})
	case "jurisprudence":
		// A flag parser rejects unknown dashed arguments before "--".
		if args[1] != "--" {
			fmt.Fprintln(os.Stderr, "unknown shorthand flag")
			os.Exit(1)
		}
		resp = EntriesResponse([]models.JurisprudenceEntry{{Title: "ATF " + args[2], Link: "https://example.test"}})
	case "crash":
		fmt.Fprintln(os.Stderr, "browser exited unexpectedly")
		os.Exit(3)
	}
	_ = json.NewEncoder(os.Stdout).Encode(resp)
	os.Exit(0)
}

func newHelperSource() *ProcessSource {
	return NewProcessSource(os.Args[0],
		ProcessWithArgs("-test.run=^TestHelperProcess$", "--"),
		ProcessWithEnv(helperEnv+"=1"),
		ProcessWithMaxProcs(2))
}

func TestProcessSourceFetchArticle(t *testing.T) {
	s := newHelperSource()

	got, err := s.FetchArticle(context.Background(), ArticleRequest{
		LawCode:       "CO",
		LawTitle:      "Code des obligations",
		SourceURL:     "https://example.test/co",
		ArticleNumber: "266g",
	})
	require.NoError(t, err)
	assert.Equal(t, "CO", got.LawCode)
	assert.Equal(t, "266g", got.ArticleNumber)
	assert.Equal(t, "<h2>Code des obligations</h2>\n<p>text</p>", got.Content)
}

func TestProcessSourceCarriesErrorKind(t *testing.T) {
	s := newHelperSource()

	_, err := s.FetchArticle(context.Background(), ArticleRequest{LawCode: "CO", ArticleNumber: "999"})
	assert.ErrorIs(t, err, ErrElementNotFound)
	assert.True(t, Retryable(err))
}

func TestProcessSourceSearchCaseLaw(t *testing.T) {
	s := newHelperSource()

	got, err := s.SearchCaseLaw(context.Background(), "bail")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ATF bail", got[0].Title)
}

func TestProcessSourceSearchCaseLawDashedKeyword(t *testing.T) {
	s := newHelperSource()

	got, err := s.SearchCaseLaw(context.Background(), "-bail")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ATF -bail", got[0].Title)
}

func TestProcessSourceWorkerCrash(t *testing.T) {
	s := newHelperSource()

	_, err := s.run(context.Background(), "crash")
	assert.ErrorIs(t, err, ErrSourceFailure)
	assert.Contains(t, err.Error(), "browser exited unexpectedly")
	assert.False(t, Retryable(err))
}

func TestWorkerResponseErr(t *testing.T) {
	assert.NoError(t, EntriesResponse(nil).Err())
	assert.ErrorIs(t, ErrorResponse(ErrTimeout).Err(), ErrTimeout)
	assert.ErrorIs(t, ErrorResponse(fmt.Errorf("%w: bad", ErrInvalidInput)).Err(), ErrInvalidInput)
	assert.ErrorIs(t, WorkerResponse{Error: "x"}.Err(), ErrSourceFailure)
}
