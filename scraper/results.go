package scraper

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"lextutor-backend/fetcher"
	"lextutor-backend/models"
)

// ExtractResults reads the case-law result cards from a search results page.
// Entries are deduplicated by title and capped at limit. Relative links are
// resolved against base.
func ExtractResults(markup, base string, limit int) ([]models.JurisprudenceEntry, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	items := findElements(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Div && hasClass(n, "result-item")
	})

	entries := make([]models.JurisprudenceEntry, 0, len(items))
	for _, item := range items {
		body := findElement(item, func(n *html.Node) bool {
			return n.DataAtom == atom.Div && hasClass(n, "result-body")
		})
		if body == nil {
			continue
		}
		summary := spacedText(body)
		if summary == "" {
			continue
		}

		var link string
		if a := findElement(item, func(n *html.Node) bool {
			return n.DataAtom == atom.A && attr(n, "href") != ""
		}); a != nil {
			link = resolveLink(baseURL, attr(a, "href"))
		}

		entries = append(entries, models.JurisprudenceEntry{
			Title:   resultTitle(body, summary),
			Link:    link,
			Summary: summary,
		})
	}
	return fetcher.DedupeEntries(entries, limit), nil
}

// resultTitle is the first non-empty block of the result body, or the whole
// body when it has no block structure.
func resultTitle(body *html.Node, summary string) string {
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if t := spacedText(c); t != "" {
			return t
		}
	}
	return summary
}

func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func spacedText(n *html.Node) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapse(strings.Join(parts, " "))
}
