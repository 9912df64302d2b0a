// Package session holds the client-side state shared by the controllers: the search term,
// the page window, sort and filter choices, the loaded items and the bulk selection.
//
// State lives in memory for the process lifetime and is safe for concurrent use.
package session

import (
	"maps"
	"slices"
	"sync"

	"github.com/desertthunder/ldx/internal/models"
)

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 20

// State is the mutable client session.
type State struct {
	mu         sync.RWMutex
	search     string
	offset     int
	limit      int
	sortKey    models.SortKey
	sortOrder  models.SortOrder
	filter     models.WatchFilter
	items      []models.CatalogItem
	stats      models.Stats
	pagination models.Pagination
	selected   map[uint]struct{}
}

// Snapshot is a read-only copy of [State] for rendering.
type Snapshot struct {
	Search     string
	Offset     int
	Limit      int
	SortKey    models.SortKey
	SortOrder  models.SortOrder
	Filter     models.WatchFilter
	Items      []models.CatalogItem
	Stats      models.Stats
	Pagination models.Pagination
	Selected   []uint
}

// IsSelected reports whether id is in the snapshot's selection.
func (s Snapshot) IsSelected(id uint) bool {
	_, found := slices.BinarySearch(s.Selected, id)
	return found
}

// New creates a state with title/asc/all and the given page size.
func New(limit int) *State {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &State{
		limit:     limit,
		sortKey:   models.SortTitle,
		sortOrder: models.Ascending,
		filter:    models.FilterAll,
		items:     []models.CatalogItem{},
		selected:  map[uint]struct{}{},
	}
}

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Search:     s.search,
		Offset:     s.offset,
		Limit:      s.limit,
		SortKey:    s.sortKey,
		SortOrder:  s.sortOrder,
		Filter:     s.filter,
		Items:      slices.Clone(s.items),
		Stats:      s.stats,
		Pagination: s.pagination,
		Selected:   slices.Sorted(maps.Keys(s.selected)),
	}
}

// Search returns the current search term and page offset.
func (s *State) Search() (string, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search, s.offset
}

// Limit returns the page size.
func (s *State) Limit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limit
}

// Listing returns the sort and filter choices.
func (s *State) Listing() (models.SortKey, models.SortOrder, models.WatchFilter) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortKey, s.sortOrder, s.filter
}

// SetSort replaces the sort key and direction.
func (s *State) SetSort(key models.SortKey, order models.SortOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortKey, s.sortOrder = key, order
}

// ToggleSortOrder flips the direction and returns the new one.
func (s *State) ToggleSortOrder() models.SortOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortOrder = s.sortOrder.Toggle()
	return s.sortOrder
}

// SetFilter replaces the watched filter.
func (s *State) SetFilter(f models.WatchFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// StorePage records a completed load: the query that produced it and its results.
func (s *State) StorePage(search string, offset int, items []models.CatalogItem, stats models.Stats, p models.Pagination) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = search
	s.offset = offset
	s.items = slices.Clone(items)
	s.stats = stats
	s.pagination = p
}

// Items returns a copy of the loaded items.
func (s *State) Items() []models.CatalogItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Item finds a loaded item by id.
func (s *State) Item(id uint) (models.CatalogItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return models.CatalogItem{}, false
}

// ToggleSelected flips id in the selection and reports whether it is now selected.
func (s *State) ToggleSelected(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return false
	}
	s.selected[id] = struct{}{}
	return true
}

// SelectAll selects every loaded item.
func (s *State) SelectAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		s.selected[item.ID] = struct{}{}
	}
	return len(s.selected)
}

// ClearSelection empties the selection.
func (s *State) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.selected)
}

// Selected returns the selected ids in ascending order.
func (s *State) Selected() []uint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.selected))
}

// SelectedCount returns the selection size.
func (s *State) SelectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}
