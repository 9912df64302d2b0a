package models

import "fmt"

// SortKey names the field the collection is ordered by.
type SortKey string

const (
	SortTitle     SortKey = "title"
	SortYear      SortKey = "year"
	SortDirector  SortKey = "director"
	SortAddedDate SortKey = "added_date"
	SortGenre     SortKey = "genre"
	SortRuntime   SortKey = "runtime"
	SortUPC       SortKey = "upc"
)

// SortKeys lists every key in UI cycling order.
var SortKeys = []SortKey{SortTitle, SortYear, SortDirector, SortAddedDate, SortGenre, SortRuntime, SortUPC}

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Next returns the key after k, wrapping around.
func (k SortKey) Next() SortKey {
	for i, key := range SortKeys {
		if key == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortTitle
}

// SortOrder is ascending or descending.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSortOrder validates a sort direction.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case Ascending, Descending:
		return SortOrder(s), nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// Toggle flips the direction.
func (o SortOrder) Toggle() SortOrder {
	if o == Descending {
		return Ascending
	}
	return Descending
}

// WatchFilter restricts the listing by watched status.
type WatchFilter string

const (
	FilterAll       WatchFilter = "all"
	FilterWatched   WatchFilter = "watched"
	FilterUnwatched WatchFilter = "unwatched"
)

// ParseWatchFilter validates a filter name.
func ParseWatchFilter(s string) (WatchFilter, error) {
	switch WatchFilter(s) {
	case FilterAll, FilterWatched, FilterUnwatched:
		return WatchFilter(s), nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Next cycles all, unwatched, watched.
func (f WatchFilter) Next() WatchFilter {
	switch f {
	case FilterAll:
		return FilterUnwatched
	case FilterUnwatched:
		return FilterWatched
	default:
		return FilterAll
	}
}

// Matches reports whether item passes the filter.
func (f WatchFilter) Matches(item CatalogItem) bool {
	switch f {
	case FilterWatched:
		return item.Watched
	case FilterUnwatched:
		return !item.Watched
	default:
		return true
	}
}
