package fetcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PayloadFormat names the shape of a raw extraction payload.
type PayloadFormat int

const (
	FormatJSON PayloadFormat = iota + 1
	FormatHTML
)

func (f PayloadFormat) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatHTML:
		return "html"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

var (
	ErrUnknownFormat = errors.New("unknown payload format")
	ErrEmptyPayload  = errors.New("empty payload")
	ErrWrongFormat   = errors.New("payload has a different format")
)

// Payload is a decoded extraction payload. Data is set for FormatJSON;
// Title and Text are set for FormatHTML.
type Payload struct {
	Format PayloadFormat
	Data   json.RawMessage
	Title  string
	Text   string
}

// DecodePayload turns a raw payload of the given format into a Payload.
func DecodePayload(format PayloadFormat, raw []byte) (Payload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Payload{}, ErrEmptyPayload
	}

	switch format {
	case FormatJSON:
		if !json.Valid(raw) {
			return Payload{}, fmt.Errorf("decode %s payload: invalid document", format)
		}
		return Payload{Format: FormatJSON, Data: json.RawMessage(raw)}, nil
	case FormatHTML:
		doc, err := html.Parse(bytes.NewReader(raw))
		if err != nil {
			return Payload{}, fmt.Errorf("decode %s payload: %w", format, err)
		}
		return Payload{
			Format: FormatHTML,
			Title:  documentTitle(doc),
			Text:   visibleText(doc),
		}, nil
	default:
		return Payload{}, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// Unmarshal decodes a JSON payload into v.
func (p Payload) Unmarshal(v interface{}) error {
	if p.Format != FormatJSON {
		return fmt.Errorf("%w: want %s, got %s", ErrWrongFormat, FormatJSON, p.Format)
	}
	return json.Unmarshal(p.Data, v)
}

func documentTitle(doc *html.Node) string {
	var title, heading string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if title == "" {
					title = collapse(textOf(n))
				}
			case atom.H1, atom.H2:
				if heading == "" {
					heading = collapse(textOf(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if title != "" {
		return title
	}
	return heading
}

func visibleText(doc *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Noscript:
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return collapse(b.String())
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
