package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuestionDropsBlankKeywords(t *testing.T) {
	q := NewQuestion("  Puis-je résilier mon bail ?  ", []string{" bail ", "", "   ", "résiliation"})

	assert.Equal(t, "Puis-je résilier mon bail ?", q.Text)
	assert.Equal(t, []string{"bail", "résiliation"}, q.Keywords)
}

func TestStreamMessagesOrder(t *testing.T) {
	result := &AggregateResult{
		AssistantResponse: "raw",
		Analysis:          &ParsedAnalysis{Summary: "s"},
		Articles: []ArticleContent{
			{LawCode: "CO", ArticleNumber: "1", Success: true},
			FailedArticle("CO", "2", "timeout"),
		},
		Jurisprudence: []JurisprudenceEntry{{Title: "ATF 1"}},
	}

	messages := StreamMessages(result)
	require.Len(t, messages, 6)

	types := make([]MessageType, len(messages))
	for i, m := range messages {
		types[i] = m.Type
	}
	assert.Equal(t, []MessageType{
		MessageAssistantResponse,
		MessageAnalysis,
		MessageArticle,
		MessageArticle,
		MessageJurisprudence,
		MessageComplete,
	}, types)
}

func TestStreamMessagesError(t *testing.T) {
	messages := StreamMessages(&AggregateResult{Error: "model unavailable"})

	require.Len(t, messages, 1)
	assert.Equal(t, MessageError, messages[0].Type)
	assert.Equal(t, "model unavailable", messages[0].Data)
}

func TestAggregateResultScanRoundTrip(t *testing.T) {
	original := AggregateResult{
		AssistantResponse: "raw",
		Articles:          []ArticleContent{{LawCode: "CC", ArticleNumber: "8", Success: true}},
		Jurisprudence:     []JurisprudenceEntry{},
	}
	value, err := original.Value()
	require.NoError(t, err)

	var scanned AggregateResult
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, original, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Equal(t, AggregateResult{}, scanned)
}

func TestNewQuestionRecordFailed(t *testing.T) {
	record := NewQuestionRecord(NewQuestion("q", nil), &AggregateResult{Error: "boom"})

	assert.Equal(t, QuestionStatusFailed, record.Status)
	require.NotNil(t, record.Error)
	assert.Equal(t, "boom", *record.Error)
	assert.Equal(t, []string{}, record.Keywords)
}
