package models

import "strings"

// Question is a natural-language legal question submitted by a caller.
// Keywords drive the jurisprudence search and are supplied independently of the text.
type Question struct {
	Text     string   `json:"question"`
	Keywords []string `json:"keywords"`
}

// NewQuestion builds a question, dropping blank keywords and trimming the rest.
func NewQuestion(text string, keywords []string) Question {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	return Question{
		Text:     strings.TrimSpace(text),
		Keywords: cleaned,
	}
}
