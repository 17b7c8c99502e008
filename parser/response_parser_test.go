package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lextutor-backend/lawcode"
	"lextutor-backend/models"
)

const sampleAnalysis = `1. **Domaine(s) juridique(s) :** Droit du bail, Droit des obligations.

2. **Articles de Loi :**
   - art. 266g CO : Cet article permet la résiliation anticipée pour justes motifs.
   - art. 271 CO : La résiliation contraire à la bonne foi est annulable.
   - art. 8 CC : Le fardeau de la preuve incombe à celui qui allègue un fait.

3. **Résumé :** Le locataire peut résilier le bail pour de justes motifs.
Le bailleur peut contester la résiliation.`

func newTestParser(t *testing.T) *ResponseParser {
	t.Helper()
	registry, err := lawcode.Default()
	require.NoError(t, err)
	return NewResponseParser(registry)
}

func TestParseWellFormed(t *testing.T) {
	p := newTestParser(t)

	got := p.Parse(sampleAnalysis)

	assert.Equal(t, "Droit du bail, Droit des obligations.", got.LegalDomains)
	assert.Equal(t, "Le locataire peut résilier le bail pour de justes motifs.\nLe bailleur peut contester la résiliation.", got.Summary)

	want := []models.ArticleReference{
		{
			ArticleNumber: "266g",
			LawCodeRaw:    "CO",
			LawCode:       "CO",
			LawName:       "CO",
			Description:   "Cet article permet la résiliation anticipée pour justes motifs.",
		},
		{
			ArticleNumber: "271",
			LawCodeRaw:    "CO",
			LawCode:       "CO",
			LawName:       "CO",
			Description:   "La résiliation contraire à la bonne foi est annulable.",
		},
		{
			ArticleNumber: "8",
			LawCodeRaw:    "CC",
			LawCode:       "CC",
			LawName:       "CC",
			Description:   "Le fardeau de la preuve incombe à celui qui allègue un fait.",
		},
	}
	if diff := cmp.Diff(want, got.CitedArticles); diff != "" {
		t.Errorf("cited articles mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, got.ValidArticles(), 3)
}

func TestParseSingleArticleLine(t *testing.T) {
	p := newTestParser(t)

	got := p.Parse("Articles de Loi :\n- art. 266g CO : résiliation anticipée")

	require.Len(t, got.CitedArticles, 1)
	ref := got.CitedArticles[0]
	assert.True(t, ref.Valid())
	assert.Equal(t, "266g", ref.ArticleNumber)
	assert.Equal(t, "CO", ref.LawCode)
	assert.Equal(t, "résiliation anticipée", ref.Description)
}

func TestParseLawDesignations(t *testing.T) {
	p := newTestParser(t)

	tests := []struct {
		line   string
		number string
		code   string
	}{
		{"- art. 41 du Code des obligations : responsabilité délictuelle", "41", "CO"},
		{"- article 12 al. 2 Cst. : liberté", "12", "Cst"},
		{"- art. 139-142 CP : infractions contre le patrimoine", "139-142", "CP"},
		{"- art. 5 Loi sur le contrat d'assurance (LCA) : champ d'application", "5", "LCA"},
		{"- **art. 9 CC** : force probante des titres publics", "9", "CC"},
		{"• Art. 1 LAMal : but de la loi", "1", "LAMal"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := p.Parse("Articles de Loi :\n" + tt.line)
			require.Len(t, got.CitedArticles, 1)
			ref := got.CitedArticles[0]
			require.True(t, ref.Valid(), ref.Error)
			assert.Equal(t, tt.number, ref.ArticleNumber)
			assert.Equal(t, tt.code, ref.LawCode)
		})
	}
}

func TestParseMalformedLinesKeepPosition(t *testing.T) {
	p := newTestParser(t)

	raw := "Articles de Loi :\n" +
		"- art. 1 CC : principe\n" +
		"- voir aussi la doctrine\n" +
		"- art. 2 XYZ : loi inconnue\n" +
		"- art. 3 CC : bonne foi"

	var got models.ParsedAnalysis
	require.NotPanics(t, func() { got = p.Parse(raw) })
	require.Len(t, got.CitedArticles, 4)

	assert.True(t, got.CitedArticles[0].Valid())

	malformed := got.CitedArticles[1]
	assert.False(t, malformed.Valid())
	assert.Contains(t, malformed.Error, "- voir aussi la doctrine")
	assert.Equal(t, "- voir aussi la doctrine", malformed.Line)

	unknown := got.CitedArticles[2]
	assert.False(t, unknown.Valid())
	assert.Contains(t, unknown.Error, "XYZ")
	assert.Equal(t, "2", unknown.ArticleNumber)

	assert.True(t, got.CitedArticles[3].Valid())
	assert.Len(t, got.ValidArticles(), 2)
}

func TestParseArticleListDetachedFromHeader(t *testing.T) {
	p := newTestParser(t)

	got := p.Parse("2. Articles de Loi :\n\n- art. 8 CC : preuve\n- art. 9 CC : titres publics\n\nRésumé : court.")

	require.Len(t, got.CitedArticles, 2)
	assert.Equal(t, "8", got.CitedArticles[0].ArticleNumber)
	assert.Equal(t, "court.", got.Summary)
}

func TestParseOptionalSections(t *testing.T) {
	p := newTestParser(t)

	raw := sampleAnalysis + "\n\n4. Principe jurisprudentiel / Arrêt de référence :\n- ATF 142 III 91\n- ATF 135 III 112" +
		"\n\n5. Controverse ou évolution : la doctrine est partagée."

	got := p.Parse(raw)

	assert.Equal(t, []string{"ATF 142 III 91", "ATF 135 III 112"}, got.JurisprudencePrinciples)
	assert.Equal(t, "la doctrine est partagée.", got.Controversy)
}

func TestParseToleratesArbitraryInput(t *testing.T) {
	p := newTestParser(t)

	inputs := []string{
		"",
		"\n\n\n",
		"Résumé",
		"Articles de Loi :",
		strings.Repeat(":", 1000),
		"Articles de Loi :\n- art. : \n- art. 99999999999999999999 CO : x",
		"\x00\xff\xfe",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { p.Parse(in) }, "input %q", in)
	}

	got := p.Parse("Introduction sans titre.\n\nAutre paragraphe.")
	assert.Empty(t, got.LegalDomains)
	assert.Empty(t, got.CitedArticles)
	assert.Empty(t, got.Summary)
}

func TestParseWithoutResolver(t *testing.T) {
	got := NewResponseParser(nil).Parse("Articles de Loi :\n- art. 1 CC : x")

	require.Len(t, got.CitedArticles, 1)
	assert.False(t, got.CitedArticles[0].Valid())
}
