package session

import (
	"sync"
	"testing"

	"github.com/desertthunder/ldx/internal/models"
)

func seeded() *State {
	s := New(0)
	s.StorePage("", 0, []models.CatalogItem{
		{ID: 1, Title: "Alien"},
		{ID: 2, Title: "Brazil"},
		{ID: 3, Title: "Tron"},
	}, models.Stats{Total: 3}, models.Pagination{Total: 3, Limit: 20})
	return s
}

func TestState(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		s := New(0)
		snap := s.Snapshot()

		if snap.Limit != DefaultLimit {
			t.Errorf("expected limit %d, got %d", DefaultLimit, snap.Limit)
		}
		if snap.SortKey != models.SortTitle || snap.SortOrder != models.Ascending || snap.Filter != models.FilterAll {
			t.Errorf("unexpected listing defaults: %s %s %s", snap.SortKey, snap.SortOrder, snap.Filter)
		}
		if snap.Items == nil || len(snap.Selected) != 0 {
			t.Error("expected empty non-nil items and no selection")
		}
	})

	t.Run("StorePage", func(t *testing.T) {
		s := seeded()
		s.StorePage("tron", 20, []models.CatalogItem{{ID: 3, Title: "Tron"}}, models.Stats{Total: 3}, models.Pagination{Total: 1, Limit: 20, Offset: 20})

		search, offset := s.Search()
		if search != "tron" || offset != 20 {
			t.Errorf("expected tron/20, got %s/%d", search, offset)
		}
		if len(s.Items()) != 1 {
			t.Errorf("expected 1 item, got %d", len(s.Items()))
		}
		if _, ok := s.Item(1); ok {
			t.Error("replaced page should not contain item 1")
		}
	})

	t.Run("Snapshot Is A Copy", func(t *testing.T) {
		s := seeded()
		snap := s.Snapshot()
		snap.Items[0].Title = "changed"

		if item, _ := s.Item(1); item.Title != "Alien" {
			t.Error("mutating a snapshot should not change the state")
		}
	})

	t.Run("Sort And Filter", func(t *testing.T) {
		s := New(10)
		s.SetSort(models.SortYear, models.Descending)
		if got := s.ToggleSortOrder(); got != models.Ascending {
			t.Errorf("expected asc after toggle, got %s", got)
		}
		s.SetFilter(models.FilterWatched)

		key, order, filter := s.Listing()
		if key != models.SortYear || order != models.Ascending || filter != models.FilterWatched {
			t.Errorf("unexpected listing %s %s %s", key, order, filter)
		}
	})

	t.Run("Selection", func(t *testing.T) {
		s := seeded()

		if !s.ToggleSelected(2) {
			t.Error("expected item 2 selected")
		}
		if s.ToggleSelected(2) {
			t.Error("expected item 2 deselected")
		}
		if n := s.SelectAll(); n != 3 {
			t.Errorf("expected 3 selected, got %d", n)
		}

		snap := s.Snapshot()
		if !snap.IsSelected(3) || snap.IsSelected(9) {
			t.Errorf("unexpected selection %v", snap.Selected)
		}

		s.ClearSelection()
		if s.SelectedCount() != 0 {
			t.Errorf("expected empty selection, got %v", s.Selected())
		}
	})

	t.Run("Concurrent Access", func(t *testing.T) {
		s := seeded()
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				s.ToggleSelected(uint(i%3 + 1))
			}()
			go func() {
				defer wg.Done()
				_ = s.Snapshot()
			}()
		}
		wg.Wait()
	})
}
