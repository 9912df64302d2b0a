// Package web renders the HTML pages ldx produces with html/template.
//
// # Pages
//
//   - collection.html: the catalog as a grid of cards, used by the html export
//   - pairing.html: the page a phone scanner app opens to pair with the remote scan server
//
// All user-supplied text goes through html/template's contextual escaping, so titles,
// notes and URLs from the backend cannot inject markup.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"runtime":  shared.FormatRuntime,
	"cover":    models.IsDisplayableCover,
	"ago":      addedAgo,
	"plural":   shared.Pluralize,
	"metadata": metadata,
}

var templates = template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))

// CollectionPage is the data for collection.html.
type CollectionPage struct {
	Title       string
	Items       []models.CatalogItem
	Stats       models.Stats
	GeneratedAt time.Time
}

// PairingPage is the data for pairing.html.
type PairingPage struct {
	Endpoint string
	Token    string
	Paired   bool
}

// RenderCollection writes the collection page.
func RenderCollection(w io.Writer, page CollectionPage) error {
	if page.Title == "" {
		page.Title = "LaserDisc Collection"
	}
	if page.GeneratedAt.IsZero() {
		page.GeneratedAt = time.Now()
	}
	return render(w, "collection.html", page)
}

// RenderPairing writes the pairing page.
func RenderPairing(w io.Writer, page PairingPage) error {
	return render(w, "pairing.html", page)
}

func render(w io.Writer, name string, data any) error {
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

func addedAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// metadata joins the non-empty year, director and format with a separator.
func metadata(item models.CatalogItem) string {
	parts := []string{}
	if item.Year > 0 {
		parts = append(parts, fmt.Sprint(item.Year))
	}
	if item.Director != "" {
		parts = append(parts, item.Director)
	}
	if item.Format != "" {
		parts = append(parts, item.Format)
	}
	return strings.Join(parts, " • ")
}
