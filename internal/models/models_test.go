package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCreateItemRequest(t *testing.T) {
	t.Run("valid request trims fields", func(t *testing.T) {
		req := CreateItemRequest{UPC: " 012345678905 ", Title: " Alien "}
		if err := req.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if req.UPC != "012345678905" || req.Title != "Alien" {
			t.Errorf("expected trimmed fields, got %q %q", req.UPC, req.Title)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		req := CreateItemRequest{UPC: "012345678905", Title: "   "}
		err := req.Validate()
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "Title") {
			t.Errorf("expected error to name Title, got %v", err)
		}
	})

	t.Run("missing upc", func(t *testing.T) {
		req := CreateItemRequest{Title: "Alien"}
		if err := req.Validate(); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("negative runtime", func(t *testing.T) {
		req := CreateItemRequest{UPC: "1", Title: "Alien", Runtime: -1}
		if err := req.Validate(); err == nil {
			t.Fatal("expected validation error")
		}
	})
}

func TestUpdateItemRequest(t *testing.T) {
	t.Run("empty fields are omitted from JSON", func(t *testing.T) {
		title := "Aliens"
		data, err := json.Marshal(UpdateItemRequest{Title: &title})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(data) != `{"title":"Aliens"}` {
			t.Errorf("unexpected JSON %s", data)
		}
	})

	t.Run("IsEmpty", func(t *testing.T) {
		if !(UpdateItemRequest{}).IsEmpty() {
			t.Error("zero request should be empty")
		}
		watched := true
		if (UpdateItemRequest{Watched: &watched}).IsEmpty() {
			t.Error("request with watched should not be empty")
		}
	})

	t.Run("Apply", func(t *testing.T) {
		item := CatalogItem{Title: "Alien", Year: 1979}
		year := 1986
		watched := true
		UpdateItemRequest{Year: &year, Watched: &watched}.Apply(&item)

		if item.Title != "Alien" || item.Year != 1986 || !item.Watched {
			t.Errorf("unexpected item after apply: %+v", item)
		}
	})
}

func TestCatalogItemJSON(t *testing.T) {
	payload := `{"id":7,"upc":"012345678905","title":"Alien","cover_image_url":"https://x/y.jpg","lddb_url":"https://www.lddb.com/laserdisc/1","watched":true,"added_date":"2024-01-02T03:04:05Z"}`

	var item CatalogItem
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if item.ID != 7 || item.CoverImageURL != "https://x/y.jpg" || !item.Watched {
		t.Errorf("unexpected item %+v", item)
	}
	if item.AddedDate.Year() != 2024 {
		t.Errorf("expected added date to parse, got %v", item.AddedDate)
	}
}

func TestCovers(t *testing.T) {
	if IsDisplayableCover("") {
		t.Error("empty URL should not be displayable")
	}
	if IsDisplayableCover(PlaceholderCover) {
		t.Error("placeholder should not be displayable")
	}
	if !(CatalogItem{CoverImageURL: "https://x/y.jpg"}).HasCover() {
		t.Error("real URL should be displayable")
	}
}

func TestListing(t *testing.T) {
	t.Run("sort keys cycle", func(t *testing.T) {
		k := SortTitle
		for range SortKeys {
			k = k.Next()
		}
		if k != SortTitle {
			t.Errorf("expected to wrap back to title, got %s", k)
		}
	})

	t.Run("parse", func(t *testing.T) {
		if _, err := ParseSortKey("added_date"); err != nil {
			t.Errorf("expected added_date to parse: %v", err)
		}
		if _, err := ParseSortKey("rating"); err == nil {
			t.Error("expected unknown key to fail")
		}
		if _, err := ParseSortOrder("sideways"); err == nil {
			t.Error("expected unknown order to fail")
		}
		if _, err := ParseWatchFilter("unwatched"); err != nil {
			t.Errorf("expected unwatched to parse: %v", err)
		}
	})

	t.Run("order toggle", func(t *testing.T) {
		if Ascending.Toggle() != Descending || Descending.Toggle() != Ascending {
			t.Error("toggle should flip direction")
		}
	})

	t.Run("filter matches", func(t *testing.T) {
		seen := CatalogItem{Watched: true}
		unseen := CatalogItem{}

		if !FilterAll.Matches(seen) || !FilterAll.Matches(unseen) {
			t.Error("all should match everything")
		}
		if !FilterWatched.Matches(seen) || FilterWatched.Matches(unseen) {
			t.Error("watched filter mismatch")
		}
		if FilterUnwatched.Matches(seen) || !FilterUnwatched.Matches(unseen) {
			t.Error("unwatched filter mismatch")
		}
		if FilterAll.Next() != FilterUnwatched || FilterWatched.Next() != FilterAll {
			t.Error("unexpected filter cycle")
		}
	})

	t.Run("pagination HasMore", func(t *testing.T) {
		if !(Pagination{Total: 45, Limit: 20, Offset: 20}).HasMore() {
			t.Error("expected more after second page of 45")
		}
		if (Pagination{Total: 40, Limit: 20, Offset: 20}).HasMore() {
			t.Error("expected no more after last page")
		}
	})

	t.Run("pagination PageEnd", func(t *testing.T) {
		tests := []struct {
			p    Pagination
			want int64
		}{
			{Pagination{Total: 45, Limit: 20, Offset: 0}, 20},
			{Pagination{Total: 45, Limit: 20, Offset: 40}, 45},
			{Pagination{Total: 7, Limit: 0, Offset: 0}, 7},
		}

		for _, tt := range tests {
			if got := tt.p.PageEnd(); got != tt.want {
				t.Errorf("%+v.PageEnd() = %d, want %d", tt.p, got, tt.want)
			}
		}
	})
}
