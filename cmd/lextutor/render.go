package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/net/html"

	"lextutor-backend/models"
)

// articleMarkdown turns the article markup produced by the statute scraper
// (<h2>, <p>, nested <ul>/<li>) into markdown.
func articleMarkdown(markup string) string {
	var (
		b       strings.Builder
		depth   int
		current strings.Builder
		prefix  string
	)
	flush := func() {
		text := strings.Join(strings.Fields(current.String()), " ")
		current.Reset()
		if text == "" {
			return
		}
		b.WriteString(prefix)
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			flush()
			return strings.TrimRight(b.String(), "\n") + "\n"
		case html.TextToken:
			current.Write(z.Text())
			current.WriteByte(' ')
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "h2":
				flush()
				prefix = "### "
			case "p":
				flush()
				prefix = ""
			case "ul", "ol":
				flush()
				depth++
			case "li":
				flush()
				prefix = strings.Repeat("  ", max(depth-1, 0)) + "- "
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "h2", "p", "li":
				flush()
				prefix = ""
			case "ul", "ol":
				flush()
				depth--
			}
		}
	}
}

func articleHeading(a models.ArticleContent) string {
	return fmt.Sprintf("Art. %s %s", a.ArticleNumber, a.LawCode)
}

// answerMarkdown lays out an aggregate result as one markdown document.
func answerMarkdown(result *models.AggregateResult) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(result.AssistantResponse))
	b.WriteString("\n\n")

	if len(result.Articles) > 0 {
		b.WriteString("## Articles de loi\n\n")
		for _, a := range result.Articles {
			b.WriteString(articleSection(a))
		}
	}

	if len(result.Jurisprudence) > 0 {
		b.WriteString("## Jurisprudence\n\n")
		for _, e := range result.Jurisprudence {
			b.WriteString(jurisprudenceLine(e))
		}
	}
	return b.String()
}

func articleSection(a models.ArticleContent) string {
	if !a.Success {
		return fmt.Sprintf("### %s\n\n_Indisponible : %s_\n\n", articleHeading(a), a.Error)
	}
	return articleMarkdown(a.Content) + "\n"
}

func jurisprudenceLine(e models.JurisprudenceEntry) string {
	title := e.Title
	if e.Link != "" {
		title = fmt.Sprintf("[%s](%s)", e.Title, e.Link)
	}
	if e.Summary == "" || e.Summary == e.Title {
		return "- " + title + "\n"
	}
	return fmt.Sprintf("- %s  \n  %s\n", title, e.Summary)
}

// renderer renders markdown for the terminal, or passes it through when
// plain output is requested.
type renderer struct {
	term *glamour.TermRenderer
}

func newRenderer(plain bool, width int) (*renderer, error) {
	if plain {
		return &renderer{}, nil
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &renderer{term: term}, nil
}

func (r *renderer) Render(markdown string) (string, error) {
	if r.term == nil {
		return markdown, nil
	}
	return r.term.Render(markdown)
}
