// Package prompt holds the tutor's prompt templates and renders them.
package prompt

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var ErrMissingVariable = errors.New("missing template variables")

var placeholder = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// Render substitutes every {{name}} in tmpl. Values are inserted verbatim and
// never re-scanned, so user text cannot introduce placeholders.
func Render(tmpl string, vars map[string]string) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok {
			if !slices.Contains(missing, name) {
				missing = append(missing, name)
			}
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingVariable, strings.Join(missing, ", "))
	}
	return out, nil
}

// ExtractVariables lists the placeholder names in tmpl in first-use order.
func ExtractVariables(tmpl string) []string {
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}
