package collection

import (
	"strings"
	"unicode"

	"github.com/desertthunder/ldx/internal/models"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics so "Amélie" matches "amelie".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// QuickFind fuzzy-matches pattern against the titles and directors of the loaded page,
// best matches first. An empty pattern returns the page unchanged.
func (m *Manager) QuickFind(pattern string) []models.CatalogItem {
	return QuickFind(m.state.Items(), pattern)
}

// QuickFind fuzzy-matches pattern against items.
func QuickFind(items []models.CatalogItem, pattern string) []models.CatalogItem {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return items
	}

	targets := make([]string, len(items))
	for i, item := range items {
		targets[i] = Fold(item.Title + " " + item.Director)
	}

	matches := fuzzy.Find(Fold(pattern), targets)
	out := make([]models.CatalogItem, 0, len(matches))
	for _, match := range matches {
		out = append(out, items[match.Index])
	}
	return out
}
