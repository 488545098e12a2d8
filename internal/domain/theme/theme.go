package theme

import (
	"fmt"
	"regexp"
	"sort"
)

var (
	tokenRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	colorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
)

// Defaults is the built-in palette shared by every screen.
var Defaults = map[string]string{
	"primary":      "#E53935",
	"primary_dark": "#C62828",
	"primary_soft": "#FFEBEE",
	"bg":           "#F4F6F9",
	"surface":      "#FFFFFF",
	"text_title":   "#1A1A1A",
	"text_body":    "#71717A",
	"border":       "#E5E7EB",
	"success":      "#4CAF50",
	"warning":      "#FF9800",
	"info":         "#2196F3",
	"violet":       "#7C3AED",
	"rose":         "#E11D48",
	"pink":         "#DB2777",
	"blue":         "#2563EB",
	"vault_bg":     "#020617",
}

// Theme maps semantic tokens to color values (immutable value object).
type Theme struct {
	tokens map[string]string
}

// New merges overrides over Defaults and validates every token.
func New(overrides map[string]string) (Theme, error) {
	tokens := make(map[string]string, len(Defaults)+len(overrides))
	for k, v := range Defaults {
		tokens[k] = v
	}
	for k, v := range overrides {
		if !tokenRegex.MatchString(k) {
			return Theme{}, fmt.Errorf("invalid theme token name %q", k)
		}
		if !colorRegex.MatchString(v) {
			return Theme{}, fmt.Errorf("theme token %q: invalid color %q", k, v)
		}
		tokens[k] = v
	}
	return Theme{tokens: tokens}, nil
}

// Default returns the built-in theme.
func Default() Theme {
	t, _ := New(nil)
	return t
}

// Color resolves a token.
func (t Theme) Color(token string) (string, bool) {
	v, ok := t.tokens[token]
	return v, ok
}

// Has reports whether token is defined.
func (t Theme) Has(token string) bool {
	_, ok := t.tokens[token]
	return ok
}

// Tokens returns a copy of the token map.
func (t Theme) Tokens() map[string]string {
	out := make(map[string]string, len(t.tokens))
	for k, v := range t.tokens {
		out[k] = v
	}
	return out
}

// Names returns the token names sorted.
func (t Theme) Names() []string {
	names := make([]string, 0, len(t.tokens))
	for k := range t.tokens {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
