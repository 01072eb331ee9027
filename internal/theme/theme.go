package theme

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed themes.yaml
var defaultThemes []byte

// Palette is the colour set a category page is rendered with.
type Palette struct {
	Primary    string `yaml:"primary" json:"primary"`
	Secondary  string `yaml:"secondary" json:"secondary"`
	Accent     string `yaml:"accent" json:"accent"`
	Background string `yaml:"background" json:"background"`
	Text       string `yaml:"text" json:"text"`
}

// Fonts names the typefaces for a theme.
type Fonts struct {
	Heading string `yaml:"heading" json:"heading"`
	Body    string `yaml:"body" json:"body"`
}

// Theme is the visual treatment for a wedding category.
type Theme struct {
	Name    string   `yaml:"name" json:"name"`
	Label   string   `yaml:"label" json:"label"`
	Aliases []string `yaml:"aliases" json:"aliases,omitempty"`
	Palette Palette  `yaml:"palette" json:"palette"`
	Fonts   Fonts    `yaml:"fonts" json:"fonts"`
}

type file struct {
	Default string  `yaml:"default"`
	Themes  []Theme `yaml:"themes"`
}

// Registry resolves categories to themes.
type Registry struct {
	themes []Theme
	index  map[string]int
	def    int
}

// Normalize canonicalises a free-form category so that "Pre Wedding",
// "pre_wedding" and " PRE-WEDDING " compare equal.
func Normalize(category string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(category)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '/':
			pendingSep = true
		}
	}
	return b.String()
}

// Default returns the registry built from the embedded theme table.
func Default() (*Registry, error) {
	return Parse(defaultThemes)
}

// Parse builds a registry from YAML.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse themes: %w", err)
	}
	if len(f.Themes) == 0 {
		return nil, fmt.Errorf("parse themes: no themes defined")
	}

	r := &Registry{themes: f.Themes, index: make(map[string]int), def: -1}
	for i, t := range f.Themes {
		keys := append([]string{t.Name, t.Label}, t.Aliases...)
		for _, k := range keys {
			n := Normalize(k)
			if n == "" {
				continue
			}
			if prev, ok := r.index[n]; ok && prev != i {
				return nil, fmt.Errorf("parse themes: %q maps to both %s and %s", k, f.Themes[prev].Name, t.Name)
			}
			r.index[n] = i
		}
		if Normalize(t.Name) == Normalize(f.Default) {
			r.def = i
		}
	}
	if r.def < 0 {
		return nil, fmt.Errorf("parse themes: default theme %q not defined", f.Default)
	}
	return r, nil
}

// Lookup returns the theme for a category and whether it matched.
// Unknown categories get the default theme.
func (r *Registry) Lookup(category string) (Theme, bool) {
	if i, ok := r.index[Normalize(category)]; ok {
		return r.themes[i], true
	}
	return r.themes[r.def], false
}

// All returns every configured theme.
func (r *Registry) All() []Theme {
	out := make([]Theme, len(r.themes))
	copy(out, r.themes)
	return out
}
