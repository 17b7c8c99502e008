// Package parser turns the model's structured French analysis into typed
// sections and expands article references into fetchable article numbers.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"lextutor-backend/models"
)

// Resolver normalizes a raw law designation to a canonical law code.
type Resolver interface {
	Resolve(raw string) (string, bool)
}

type sectionKind int

const (
	sectionUnknown sectionKind = iota
	sectionDomains
	sectionArticles
	sectionSummary
	sectionPrinciples
	sectionControversy
)

// Header phrases, checked in order against the lower-cased header line.
var sectionHeaders = []struct {
	kind    sectionKind
	phrases []string
}{
	{sectionDomains, []string{"domaine(s) juridique(s)", "domaines juridiques", "domaine juridique"}},
	{sectionArticles, []string{"articles de loi", "article(s) de loi"}},
	{sectionSummary, []string{"résumé"}},
	{sectionPrinciples, []string{"principe jurisprudentiel", "arrêt de référence"}},
	{sectionControversy, []string{"controverse ou évolution"}},
}

var (
	sectionSplit = regexp.MustCompile(`\n[ \t]*\n`)
	articleLine  = regexp.MustCompile(`(?i)^(?:[-•*]\s*)?(?:art\.|article)\s*(\d+[a-z]?(?:\s*[-–]\s*\d+[a-z]?)?)\s*(?:al\.\s*\d+)?\s*(?:du\s+|de la\s+)?([^:]+):\s*(.+)$`)
	parenCode    = regexp.MustCompile(`\(([^)]+)\)`)
)

// ResponseParser parses the model output. It performs no I/O and never panics
// on malformed input.
type ResponseParser struct {
	resolver Resolver
}

// NewResponseParser creates a parser resolving law designations through resolver.
func NewResponseParser(resolver Resolver) *ResponseParser {
	return &ResponseParser{resolver: resolver}
}

// Parse splits raw into blank-line delimited sections and classifies them by
// their header phrase. Unclassified sections are ignored.
func (p *ResponseParser) Parse(raw string) models.ParsedAnalysis {
	result := models.ParsedAnalysis{
		CitedArticles: []models.ArticleReference{},
	}

	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	previous := sectionUnknown

	for _, section := range sectionSplit.Split(raw, -1) {
		lines := strings.Split(strings.TrimSpace(section), "\n")
		if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
			continue
		}

		kind := classify(lines[0])
		if kind == sectionUnknown {
			// An article list separated from its header by a blank line.
			if previous == sectionArticles && looksLikeArticleList(lines) {
				result.CitedArticles = append(result.CitedArticles, p.parseArticles(lines)...)
				continue
			}
			previous = sectionUnknown
			continue
		}
		previous = kind

		header := lines[0]
		rest := lines[1:]

		switch kind {
		case sectionDomains:
			result.LegalDomains = sectionBody(header, rest)
		case sectionArticles:
			result.CitedArticles = append(result.CitedArticles, p.parseArticles(rest)...)
		case sectionSummary:
			result.Summary = sectionBody(header, rest)
		case sectionPrinciples:
			result.JurisprudencePrinciples = bulletLines(rest)
		case sectionControversy:
			result.Controversy = sectionBody(header, rest)
		}
	}

	return result
}

// classify recognizes a section by the header phrase on its first line.
func classify(header string) sectionKind {
	lower := strings.ToLower(stripMarkup(header))
	for _, h := range sectionHeaders {
		for _, phrase := range h.phrases {
			if strings.Contains(lower, phrase) {
				return h.kind
			}
		}
	}
	return sectionUnknown
}

func (p *ResponseParser) parseArticles(lines []string) []models.ArticleReference {
	refs := make([]models.ArticleReference, 0, len(lines))
	for _, line := range lines {
		cleaned := strings.TrimSpace(stripMarkup(line))
		if cleaned == "" {
			continue
		}
		refs = append(refs, p.parseArticleLine(cleaned))
	}
	return refs
}

func (p *ResponseParser) parseArticleLine(line string) models.ArticleReference {
	m := articleLine.FindStringSubmatch(line)
	if m == nil {
		return models.ArticleReference{
			Line:  line,
			Error: fmt.Sprintf("unrecognized article format: %s", line),
		}
	}

	number := normalizeArticleToken(m[1])
	lawName := strings.TrimSpace(m[2])
	description := strings.TrimSpace(m[3])

	lawRaw := lawName
	if pm := parenCode.FindStringSubmatch(lawName); pm != nil {
		lawRaw = strings.TrimSpace(pm[1])
	}

	code, ok := p.resolveLaw(lawRaw)
	if !ok {
		return models.ArticleReference{
			ArticleNumber: number,
			LawCodeRaw:    lawRaw,
			LawName:       lawName,
			Description:   description,
			Line:          line,
			Error:         fmt.Sprintf("unrecognized law code: %s", lawName),
		}
	}

	return models.ArticleReference{
		ArticleNumber: number,
		LawCodeRaw:    lawRaw,
		LawCode:       code,
		LawName:       lawName,
		Description:   description,
	}
}

// resolveLaw tries the whole designation first, then its first word.
func (p *ResponseParser) resolveLaw(raw string) (string, bool) {
	if p.resolver == nil || raw == "" {
		return "", false
	}
	if code, ok := p.resolver.Resolve(raw); ok {
		return code, true
	}
	if fields := strings.Fields(raw); len(fields) > 1 {
		return p.resolver.Resolve(fields[0])
	}
	return "", false
}

func normalizeArticleToken(token string) string {
	token = strings.ReplaceAll(token, "–", "-")
	token = strings.Join(strings.Fields(token), "")
	return strings.ToLower(token)
}

func looksLikeArticleList(lines []string) bool {
	first := strings.ToLower(strings.TrimSpace(stripMarkup(lines[0])))
	first = strings.TrimLeft(first, "-•* ")
	return strings.HasPrefix(first, "art")
}

// sectionBody returns the text after the header colon plus the following lines.
func sectionBody(header string, rest []string) string {
	header = stripMarkup(header)
	var parts []string
	if _, after, found := strings.Cut(header, ":"); found {
		if after = strings.TrimSpace(after); after != "" {
			parts = append(parts, after)
		}
	}
	for _, line := range rest {
		if line = strings.TrimSpace(stripMarkup(line)); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "\n")
}

func bulletLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Trim(strings.TrimSpace(stripMarkup(line)), "-• ")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func stripMarkup(s string) string {
	return strings.ReplaceAll(s, "**", "")
}
