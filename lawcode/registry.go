// Package lawcode maps Swiss law-code abbreviations and their spelled-out
// variants to canonical codes of the statute source.
package lawcode

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed codes.yaml
var defaultTable []byte

var (
	ErrEmptyTable         = errors.New("law code table has no codes")
	ErrDuplicateCode      = errors.New("duplicate law code")
	ErrUnknownAliasTarget = errors.New("alias points to unknown law code")
	ErrMissingCodeLocator = errors.New("law code has no source locator")
)

// LawCode is one entry of the static table.
type LawCode struct {
	Code  string `yaml:"code" json:"code"`
	Title string `yaml:"title" json:"title"`
	URL   string `yaml:"url" json:"url"`
}

type alias struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

type table struct {
	Codes   []LawCode `yaml:"codes"`
	Aliases []alias   `yaml:"aliases"`
}

// Registry resolves raw law designations to canonical codes.
// It is immutable after construction and safe for concurrent reads.
type Registry struct {
	codes   map[string]LawCode // canonical code -> entry
	byUpper map[string]string  // upper-cased code -> canonical code
	aliases []alias            // upper-cased names, longest first
}

// Default returns a registry built from the embedded table.
func Default() (*Registry, error) {
	return Parse(defaultTable)
}

// LoadFile builds a registry from a YAML table on disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read law code table: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML table content.
func Parse(data []byte) (*Registry, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse law code table: %w", err)
	}
	if len(t.Codes) == 0 {
		return nil, ErrEmptyTable
	}

	r := &Registry{
		codes:   make(map[string]LawCode, len(t.Codes)),
		byUpper: make(map[string]string, len(t.Codes)),
		aliases: make([]alias, 0, len(t.Aliases)),
	}

	for _, code := range t.Codes {
		code.Code = strings.TrimSpace(code.Code)
		upper := strings.ToUpper(code.Code)
		if _, exists := r.byUpper[upper]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, code.Code)
		}
		if code.URL == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingCodeLocator, code.Code)
		}
		r.codes[code.Code] = code
		r.byUpper[upper] = code.Code
	}

	for _, a := range t.Aliases {
		if _, ok := r.codes[a.Code]; !ok {
			return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownAliasTarget, a.Name, a.Code)
		}
		r.aliases = append(r.aliases, alias{
			Name: strings.ToUpper(strings.TrimSpace(a.Name)),
			Code: a.Code,
		})
	}
	sort.SliceStable(r.aliases, func(i, j int) bool {
		return len(r.aliases[i].Name) > len(r.aliases[j].Name)
	})

	return r, nil
}

// Resolve normalizes a raw law designation ("co", "Code civil", "CST.") to its
// canonical code. The second result is false for unrecognized designations.
func (r *Registry) Resolve(raw string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if upper == "" {
		return "", false
	}

	for _, a := range r.aliases {
		if strings.HasPrefix(upper, a.Name) {
			return a.Code, true
		}
	}

	if code, ok := r.byUpper[upper]; ok {
		return code, true
	}
	if code, ok := r.byUpper[strings.TrimRight(upper, ".,;")]; ok {
		return code, true
	}
	return "", false
}

// Lookup returns the table entry of a canonical code.
func (r *Registry) Lookup(code string) (LawCode, bool) {
	entry, ok := r.codes[code]
	return entry, ok
}

// Aliases returns a copy of the alias table, keyed by upper-cased name.
func (r *Registry) Aliases() map[string]string {
	out := make(map[string]string, len(r.aliases))
	for _, a := range r.aliases {
		out[a.Name] = a.Code
	}
	return out
}

// Codes returns all known codes sorted by abbreviation.
func (r *Registry) Codes() []LawCode {
	out := make([]LawCode, 0, len(r.codes))
	for _, c := range r.codes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
