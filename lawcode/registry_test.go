package lawcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Default()
	require.NoError(t, err)
	return r
}

func TestResolveAliases(t *testing.T) {
	r := defaultRegistry(t)

	aliases := r.Aliases()
	require.NotEmpty(t, aliases)

	for name, code := range aliases {
		variants := []string{
			name,
			strings.ToLower(name),
			"  " + name + "\t",
			"\n" + strings.ToLower(name) + " ",
		}
		for _, v := range variants {
			got, ok := r.Resolve(v)
			assert.True(t, ok, "alias %q", v)
			assert.Equal(t, code, got, "alias %q", v)
		}
	}
}

func TestResolveCodes(t *testing.T) {
	r := defaultRegistry(t)

	tests := []struct {
		raw  string
		want string
	}{
		{"CO", "CO"},
		{"co", "CO"},
		{" cc ", "CC"},
		{"Cst.", "Cst"},
		{"CST", "Cst"},
		{"lamal", "LAMal"},
		{"Code des obligations", "CO"},
		{"Code pénal militaire", "CPM"},
		{"Code pénal suisse", "CP"},
		{"Constitution fédérale de la Confédération suisse", "Cst"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := r.Resolve(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUnknown(t *testing.T) {
	r := defaultRegistry(t)

	for _, raw := range []string{"UNKNOWNCODE", "", "   ", "Code"} {
		got, ok := r.Resolve(raw)
		assert.False(t, ok, raw)
		assert.Empty(t, got, raw)
	}
}

func TestLookup(t *testing.T) {
	r := defaultRegistry(t)

	entry, ok := r.Lookup("CO")
	require.True(t, ok)
	assert.Equal(t, "Code des obligations", entry.Title)
	assert.True(t, strings.HasPrefix(entry.URL, "https://www.fedlex.admin.ch/eli/cc/"))

	_, ok = r.Lookup("co")
	assert.False(t, ok, "lookup takes canonical codes only")
}

func TestParseRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  error
	}{
		{"empty", "codes: []", ErrEmptyTable},
		{
			"duplicate",
			"codes:\n  - {code: CO, title: a, url: u}\n  - {code: co, title: b, url: u}\n",
			ErrDuplicateCode,
		},
		{
			"alias target",
			"codes:\n  - {code: CO, title: a, url: u}\naliases:\n  - {name: CODE CIVIL, code: CC}\n",
			ErrUnknownAliasTarget,
		},
		{"no url", "codes:\n  - {code: CO, title: a}\n", ErrMissingCodeLocator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCodesSorted(t *testing.T) {
	codes := defaultRegistry(t).Codes()
	require.NotEmpty(t, codes)
	for i := 1; i < len(codes); i++ {
		assert.Less(t, codes[i-1].Code, codes[i].Code)
	}
}
