package scraper

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lextutor-backend/models"
)

const resultsMarkup = `<html><body>
<div class="results">
  <div class="result-item">
    <a href="/view/CH_BGer_4A_32_2018">open</a>
    <div class="result-body"><div class="title">4A_32/2018</div><div>Résiliation   du bail pour justes motifs.</div></div>
  </div>
  <div class="result-item">
    <a href="https://entscheidsuche.ch/docs/ATF_140_III_591.html">open</a>
    <div class="result-body"><div class="title">ATF 140 III 591</div><div>Congé extraordinaire.</div></div>
  </div>
  <div class="result-item">
    <a href="/view/duplicate">open</a>
    <div class="result-body"><div class="title"> 4A_32/2018 </div><div>Doublon.</div></div>
  </div>
  <div class="result-item"><a href="/view/empty">open</a></div>
  <div class="result-item">
    <div class="result-body">Texte libre sans lien</div>
  </div>
</div>
</body></html>`

func TestExtractResults(t *testing.T) {
	got, err := ExtractResults(resultsMarkup, SearchURL, 20)
	require.NoError(t, err)

	want := []models.JurisprudenceEntry{
		{
			Title:   "4A_32/2018",
			Link:    "https://beta.entscheidsuche.ch/view/CH_BGer_4A_32_2018",
			Summary: "4A_32/2018 Résiliation du bail pour justes motifs.",
		},
		{
			Title:   "ATF 140 III 591",
			Link:    "https://entscheidsuche.ch/docs/ATF_140_III_591.html",
			Summary: "ATF 140 III 591 Congé extraordinaire.",
		},
		{
			Title:   "Texte libre sans lien",
			Summary: "Texte libre sans lien",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractResults mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractResultsLimit(t *testing.T) {
	got, err := ExtractResults(resultsMarkup, SearchURL, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "4A_32/2018", got[0].Title)
}

func TestExtractResultsEmptyPage(t *testing.T) {
	got, err := ExtractResults(`<html><body><p>Aucun résultat</p></body></html>`, SearchURL, 20)
	require.NoError(t, err)
	assert.Empty(t, got)
}
