package collection

import (
	"cmp"
	"slices"
	"strings"

	"github.com/desertthunder/ldx/internal/models"
)

// Filter returns the items passing f. FilterAll returns every item.
func Filter(items []models.CatalogItem, f models.WatchFilter) []models.CatalogItem {
	out := make([]models.CatalogItem, 0, len(items))
	for _, item := range items {
		if f.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}

// Sort returns a stably sorted copy. Strings compare case-insensitively.
func Sort(items []models.CatalogItem, key models.SortKey, order models.SortOrder) []models.CatalogItem {
	out := slices.Clone(items)
	compare := comparator(key)
	if order == models.Descending {
		slices.SortStableFunc(out, func(a, b models.CatalogItem) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(out, compare)
	}
	return out
}

func comparator(key models.SortKey) func(a, b models.CatalogItem) int {
	switch key {
	case models.SortYear:
		return func(a, b models.CatalogItem) int { return cmp.Compare(a.Year, b.Year) }
	case models.SortRuntime:
		return func(a, b models.CatalogItem) int { return cmp.Compare(a.Runtime, b.Runtime) }
	case models.SortAddedDate:
		return func(a, b models.CatalogItem) int { return a.AddedDate.Compare(b.AddedDate) }
	case models.SortDirector:
		return byString(func(c models.CatalogItem) string { return c.Director })
	case models.SortGenre:
		return byString(func(c models.CatalogItem) string { return c.Genre })
	case models.SortUPC:
		return byString(func(c models.CatalogItem) string { return c.UPC })
	default:
		return byString(func(c models.CatalogItem) string { return c.Title })
	}
}

func byString(field func(models.CatalogItem) string) func(a, b models.CatalogItem) int {
	return func(a, b models.CatalogItem) int {
		return strings.Compare(strings.ToLower(field(a)), strings.ToLower(field(b)))
	}
}
