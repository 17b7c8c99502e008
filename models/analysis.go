package models

// AnalysisResult is the raw output of the language model for one question,
// or an error marker when the call failed.
type AnalysisResult struct {
	Text  string `json:"assistant_response,omitempty"`
	Error string `json:"error,omitempty"`
}

// Failed reports whether the analysis carries an error instead of text.
func (r AnalysisResult) Failed() bool {
	return r.Error != ""
}

// ArticleReference is one cited article extracted from the model output.
// Entries that could not be parsed keep their slot with Error set and the
// offending line in Line.
type ArticleReference struct {
	ArticleNumber string `json:"article_number,omitempty"` // "266g" or "139-142"
	LawCodeRaw    string `json:"law_code_raw,omitempty"`
	LawCode       string `json:"law_code,omitempty"` // canonical, resolved through the registry
	LawName       string `json:"law_name,omitempty"`
	Description   string `json:"description,omitempty"`
	Line          string `json:"line,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Valid reports whether the reference parsed and resolved to a known law code.
func (a ArticleReference) Valid() bool {
	return a.Error == ""
}

// ParsedAnalysis holds the typed sections of the model output.
type ParsedAnalysis struct {
	LegalDomains            string             `json:"legal_domains"`
	CitedArticles           []ArticleReference `json:"cited_articles"`
	Summary                 string             `json:"summary"`
	JurisprudencePrinciples []string           `json:"jurisprudence_principles,omitempty"`
	Controversy             string             `json:"controversy,omitempty"`
}

// ValidArticles returns the cited articles that can be fetched, in citation order.
func (p ParsedAnalysis) ValidArticles() []ArticleReference {
	valid := make([]ArticleReference, 0, len(p.CitedArticles))
	for _, ref := range p.CitedArticles {
		if ref.Valid() {
			valid = append(valid, ref)
		}
	}
	return valid
}
