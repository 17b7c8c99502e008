package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"lextutor-backend/fetcher"
)

var articleSuffix = regexp.MustCompile(`(\d+)([a-z])`)

// ArticleAnchor returns the element id Fedlex uses for an article number,
// e.g. "266g" becomes "art_266_g".
func ArticleAnchor(number string) string {
	return "art_" + articleSuffix.ReplaceAllString(strings.ToLower(number), "${1}_${2}")
}

// FormatArticle flattens the markup of one Fedlex article into an <h2> heading
// followed by indented <p> and list lines. Text is re-escaped, so the content
// is valid markup. It returns the plain article title and the content.
func FormatArticle(markup, anchor, lawTitle, number string) (title, content string, err error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", "", fmt.Errorf("parse article markup: %w", err)
	}

	article := findElement(doc, func(n *html.Node) bool {
		return attr(n, "id") == anchor
	})
	if article == nil {
		return "", "", fmt.Errorf("%w: #%s", fetcher.ErrElementNotFound, anchor)
	}

	title = "Article " + number
	if h := findElement(article, func(n *html.Node) bool {
		return n.DataAtom == atom.H5 && hasClass(n, "article-title")
	}); h != nil {
		if t := collapse(textOf(h)); t != "" {
			title = t
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s - %s</h2>\n", html.EscapeString(lawTitle), html.EscapeString(title))
	writeContent(&b, article, 0)
	return title, b.String(), nil
}

func writeContent(b *strings.Builder, n *html.Node, level int) {
	indent := strings.Repeat("  ", level)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.P, atom.Div:
			fmt.Fprintf(b, "%s<p>%s</p>\n", indent, html.EscapeString(collapse(textOf(c))))
		case atom.Ul, atom.Ol:
			fmt.Fprintf(b, "%s<%s>\n", indent, c.Data)
			for li := c.FirstChild; li != nil; li = li.NextSibling {
				if li.Type != html.ElementNode || li.DataAtom != atom.Li {
					continue
				}
				fmt.Fprintf(b, "%s  <li>%s</li>\n", indent, html.EscapeString(collapse(textOf(li))))
				writeContent(b, li, level+2)
			}
			fmt.Fprintf(b, "%s</%s>\n", indent, c.Data)
		}
	}
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findElements(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
