package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
)

const ellipsis = "…"

var _ list.Item = catalogItem{}

// catalogItem wraps [models.CatalogItem] to implement [list.Item].
type catalogItem struct {
	item     models.CatalogItem
	selected bool
	width    int
}

func (i catalogItem) FilterValue() string { return i.item.Title }

func (i catalogItem) Title() string {
	mark := "  "
	if i.selected {
		mark = "● "
	}
	watched := "○ "
	if i.item.Watched {
		watched = "✓ "
	}
	title := shared.Sanitize(i.item.Title)
	if i.width > 8 {
		title = truncate.StringWithTail(title, uint(i.width-8), ellipsis)
	}
	return mark + watched + title
}

func (i catalogItem) Description() string {
	parts := []string{}
	if meta := metadata(i.item); meta != "" {
		parts = append(parts, meta)
	}
	if ago := addedAgo(i.item.AddedDate, time.Now()); ago != "" {
		parts = append(parts, "added "+ago)
	}
	desc := strings.Join(parts, " • ")
	if i.width > 8 {
		desc = truncate.StringWithTail(desc, uint(i.width-4), ellipsis)
	}
	return desc
}

// catalogItems wraps items for the list, marking the selected ones.
func catalogItems(items []models.CatalogItem, selected func(uint) bool, width int) []list.Item {
	out := make([]list.Item, len(items))
	for i, item := range items {
		out[i] = catalogItem{item: item, selected: selected(item.ID), width: width}
	}
	return out
}

// metadata joins the non-empty year, director and format.
func metadata(item models.CatalogItem) string {
	parts := []string{}
	if item.Year > 0 {
		parts = append(parts, fmt.Sprint(item.Year))
	}
	if item.Director != "" {
		parts = append(parts, shared.Sanitize(item.Director))
	}
	if item.Format != "" {
		parts = append(parts, shared.Sanitize(item.Format))
	}
	return strings.Join(parts, " • ")
}

// addedAgo renders t relative to now, falling back to a date after a week.
func addedAgo(t, now time.Time) string {
	switch ago := now.Sub(t); {
	case t.IsZero():
		return ""
	case ago < time.Minute:
		return "just now"
	case ago < humanize.Week:
		return humanize.RelTime(t, now, "ago", "from now")
	default:
		return t.Format("02 Jan 2006")
	}
}
