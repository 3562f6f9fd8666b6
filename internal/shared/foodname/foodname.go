// Package foodname normalizes food names so that class labels and nutrition
// table rows authored independently can be joined on a single key.
package foodname

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var keyReplacer = strings.NewReplacer(" ", "_", "-", "_")

// Canonicalize trims surrounding whitespace, lowercases the name and replaces
// spaces and hyphens with underscores.
func Canonicalize(name string) string {
	return keyReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// DisplayName turns a canonical label such as "apple_pie" into "Apple Pie".
// Words follow Unicode segmentation, so "7up" and "chef's" stay "7up" and "Chef's".
func DisplayName(label string) string {
	// cases.Caser is stateful, so a new one is created per call.
	return cases.Title(language.Und).String(strings.ReplaceAll(label, "_", " "))
}
