package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// PlaceholderCover is the image lddb.com serves while a cover is still loading; never shown.
const PlaceholderCover = "https://www.lddb.com/images/visual/loading.gif"

var validate = validator.New()

// CatalogItem is a LaserDisc in the collection.
type CatalogItem struct {
	ID            uint      `json:"id" yaml:"id"`
	UPC           string    `json:"upc" yaml:"upc"`
	Title         string    `json:"title" yaml:"title"`
	Year          int       `json:"year,omitempty" yaml:"year,omitempty"`
	Director      string    `json:"director,omitempty" yaml:"director,omitempty"`
	Genre         string    `json:"genre,omitempty" yaml:"genre,omitempty"`
	Format        string    `json:"format,omitempty" yaml:"format,omitempty"`
	Sides         int       `json:"sides,omitempty" yaml:"sides,omitempty"`
	Runtime       int       `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	CoverImageURL string    `json:"cover_image_url,omitempty" yaml:"cover_image_url,omitempty"`
	LDDBURL       string    `json:"lddb_url,omitempty" yaml:"lddb_url,omitempty"`
	Watched       bool      `json:"watched" yaml:"watched"`
	Notes         string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	AddedDate     time.Time `json:"added_date" yaml:"added_date"`
	UpdatedDate   time.Time `json:"updated_date" yaml:"updated_date"`
}

// HasCover reports whether the item has a displayable cover image.
func (c CatalogItem) HasCover() bool {
	return IsDisplayableCover(c.CoverImageURL)
}

// IsDisplayableCover reports whether url is set and not the lddb loading placeholder.
func IsDisplayableCover(url string) bool {
	return url != "" && url != PlaceholderCover
}

// CreateItemRequest is the payload for POST /collection.
type CreateItemRequest struct {
	UPC           string `json:"upc" validate:"required"`
	Title         string `json:"title" validate:"required"`
	Year          int    `json:"year" validate:"gte=0"`
	Director      string `json:"director"`
	Genre         string `json:"genre"`
	Format        string `json:"format"`
	Sides         int    `json:"sides" validate:"gte=0"`
	Runtime       int    `json:"runtime" validate:"gte=0"`
	CoverImageURL string `json:"cover_image_url"`
	LDDBURL       string `json:"lddb_url"`
	Notes         string `json:"notes"`
}

// Validate trims the required fields and checks the struct tags.
func (r *CreateItemRequest) Validate() error {
	r.UPC = strings.TrimSpace(r.UPC)
	r.Title = strings.TrimSpace(r.Title)
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid laserdisc: %w", err)
	}
	return nil
}

// UpdateItemRequest is the partial payload for PUT /collection/{id}. Nil fields are left unchanged.
type UpdateItemRequest struct {
	UPC           *string `json:"upc,omitempty"`
	Title         *string `json:"title,omitempty"`
	Year          *int    `json:"year,omitempty"`
	Director      *string `json:"director,omitempty"`
	Genre         *string `json:"genre,omitempty"`
	Format        *string `json:"format,omitempty"`
	Sides         *int    `json:"sides,omitempty"`
	Runtime       *int    `json:"runtime,omitempty"`
	CoverImageURL *string `json:"cover_image_url,omitempty"`
	LDDBURL       *string `json:"lddb_url,omitempty"`
	Watched       *bool   `json:"watched,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (r UpdateItemRequest) IsEmpty() bool {
	return r == UpdateItemRequest{}
}

// Apply copies the non-nil fields onto item.
func (r UpdateItemRequest) Apply(item *CatalogItem) {
	if r.UPC != nil {
		item.UPC = *r.UPC
	}
	if r.Title != nil {
		item.Title = *r.Title
	}
	if r.Year != nil {
		item.Year = *r.Year
	}
	if r.Director != nil {
		item.Director = *r.Director
	}
	if r.Genre != nil {
		item.Genre = *r.Genre
	}
	if r.Format != nil {
		item.Format = *r.Format
	}
	if r.Sides != nil {
		item.Sides = *r.Sides
	}
	if r.Runtime != nil {
		item.Runtime = *r.Runtime
	}
	if r.CoverImageURL != nil {
		item.CoverImageURL = *r.CoverImageURL
	}
	if r.LDDBURL != nil {
		item.LDDBURL = *r.LDDBURL
	}
	if r.Watched != nil {
		item.Watched = *r.Watched
	}
	if r.Notes != nil {
		item.Notes = *r.Notes
	}
}

// LookupResult is what the reference database knows about a code.
type LookupResult struct {
	UPC           string `json:"upc"`
	Title         string `json:"title"`
	Year          int    `json:"year,omitempty"`
	Director      string `json:"director,omitempty"`
	Genre         string `json:"genre,omitempty"`
	Format        string `json:"format,omitempty"`
	Sides         int    `json:"sides,omitempty"`
	Runtime       int    `json:"runtime,omitempty"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
	LDDBURL       string `json:"lddb_url,omitempty"`
	Found         bool   `json:"found"`
	Error         string `json:"error,omitempty"`
}

// Lookup is a lookup response: the result plus the collection copy when the code is already owned.
type Lookup struct {
	Source   string        `json:"source"`
	Result   *LookupResult `json:"result"`
	Existing *CatalogItem  `json:"existing,omitempty"`
	Message  string        `json:"message"`
}

// Stats summarises the whole collection.
type Stats struct {
	Total     int64 `json:"total" yaml:"total"`
	Watched   int64 `json:"watched" yaml:"watched"`
	Unwatched int64 `json:"unwatched" yaml:"unwatched"`
}

// Pagination describes the page the backend returned.
type Pagination struct {
	Total  int64 `json:"total" yaml:"total"`
	Limit  int   `json:"limit" yaml:"limit"`
	Offset int   `json:"offset" yaml:"offset"`
}

// HasMore reports whether items exist past this page.
func (p Pagination) HasMore() bool {
	return int64(p.Offset+p.Limit) < p.Total
}

// PageEnd is the 1-based position of the last item the backend returned for this page,
// independent of any client-side filter.
func (p Pagination) PageEnd() int64 {
	if p.Limit <= 0 {
		return p.Total
	}
	return min(int64(p.Offset+p.Limit), p.Total)
}

// CollectionPage is the GET /collection response.
type CollectionPage struct {
	Items      []CatalogItem `json:"laserdiscs" yaml:"laserdiscs"`
	Pagination Pagination    `json:"pagination" yaml:"pagination"`
	Stats      Stats         `json:"stats" yaml:"stats"`
}

// ListQuery selects a page of the collection.
type ListQuery struct {
	Search string
	Limit  int
	Offset int
}

// ScanRecord is an accepted detection kept in local history.
type ScanRecord struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Format     string    `json:"format"`
	Confidence float64   `json:"confidence"`
	Engine     string    `json:"engine"`
	ScannedAt  time.Time `json:"scanned_at"`
}
