package web

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ldx/internal/models"
)

func TestRenderCollection(t *testing.T) {
	t.Run("Escapes User Text", func(t *testing.T) {
		var buf bytes.Buffer
		page := CollectionPage{Items: []models.CatalogItem{
			{ID: 1, UPC: "111", Title: `<script>alert("x")</script>`, Notes: "<b>bold</b>"},
		}}

		if err := RenderCollection(&buf, page); err != nil {
			t.Fatalf("render failed: %v", err)
		}
		out := buf.String()
		if strings.Contains(out, "<script>alert") || strings.Contains(out, "<b>bold</b>") {
			t.Errorf("expected user text escaped, got %s", out)
		}
		if !strings.Contains(out, "&lt;script&gt;") {
			t.Error("expected escaped title in output")
		}
	})

	t.Run("Hides Placeholder Cover", func(t *testing.T) {
		var buf bytes.Buffer
		page := CollectionPage{Items: []models.CatalogItem{
			{ID: 1, Title: "Alien", CoverImageURL: models.PlaceholderCover},
			{ID: 2, Title: "Tron", CoverImageURL: "https://example.com/tron.jpg"},
		}}

		if err := RenderCollection(&buf, page); err != nil {
			t.Fatalf("render failed: %v", err)
		}
		out := buf.String()
		if strings.Contains(out, "loading.gif") {
			t.Error("placeholder cover should never be rendered")
		}
		if !strings.Contains(out, "https://example.com/tron.jpg") {
			t.Error("expected real cover to be rendered")
		}
	})

	t.Run("Card Details", func(t *testing.T) {
		var buf bytes.Buffer
		page := CollectionPage{
			Title: "Shelf",
			Items: []models.CatalogItem{{
				ID: 7, UPC: "222", Title: "Blade Runner", Year: 1982, Director: "Ridley Scott",
				Format: "CLV", Runtime: 117, Sides: 2, Watched: true,
				AddedDate: time.Now().Add(-72 * time.Hour),
			}},
			Stats: models.Stats{Total: 1, Watched: 1},
		}

		if err := RenderCollection(&buf, page); err != nil {
			t.Fatalf("render failed: %v", err)
		}
		out := buf.String()
		for _, want := range []string{"<title>Shelf</title>", "1982 • Ridley Scott • CLV", "117 min • 2 sides", "Watched", "3 days ago", `data-id="7"`} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("Empty Collection", func(t *testing.T) {
		var buf bytes.Buffer
		if err := RenderCollection(&buf, CollectionPage{}); err != nil {
			t.Fatalf("render failed: %v", err)
		}
		if !strings.Contains(buf.String(), "No LaserDiscs in the collection yet.") {
			t.Error("expected empty state message")
		}
	})
}

func TestRenderPairing(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPairing(&buf, PairingPage{Endpoint: "http://10.0.0.2:3000/detections", Token: "abc-123"})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "http://10.0.0.2:3000/detections") || !strings.Contains(out, "X-Pairing-Token: abc-123") {
		t.Errorf("unexpected pairing page: %s", out)
	}
}
