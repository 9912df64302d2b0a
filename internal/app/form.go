package app

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
)

// Form field names, in display order.
const (
	FieldUPC      = "upc"
	FieldTitle    = "title"
	FieldYear     = "year"
	FieldDirector = "director"
	FieldGenre    = "genre"
	FieldFormat   = "format"
	FieldSides    = "sides"
	FieldRuntime  = "runtime"
	FieldNotes    = "notes"
)

// Fields lists the editable fields in display order.
var Fields = []string{FieldUPC, FieldTitle, FieldYear, FieldDirector, FieldGenre, FieldFormat, FieldSides, FieldRuntime, FieldNotes}

// FormValues are the raw strings typed into the add or edit form.
type FormValues struct {
	UPC           string
	Title         string
	Year          string
	Director      string
	Genre         string
	Format        string
	Sides         string
	Runtime       string
	Notes         string
	CoverImageURL string
	LDDBURL       string
}

// Get returns the value of the named field.
func (v FormValues) Get(field string) string {
	if p := v.field(field); p != nil {
		return *p
	}
	return ""
}

// Set assigns the named field.
func (v *FormValues) Set(field, value string) error {
	p := v.field(field)
	if p == nil {
		return fmt.Errorf("%w: unknown field %q", shared.ErrInvalidInput, field)
	}
	*p = value
	return nil
}

func (v *FormValues) field(name string) *string {
	switch name {
	case FieldUPC:
		return &v.UPC
	case FieldTitle:
		return &v.Title
	case FieldYear:
		return &v.Year
	case FieldDirector:
		return &v.Director
	case FieldGenre:
		return &v.Genre
	case FieldFormat:
		return &v.Format
	case FieldSides:
		return &v.Sides
	case FieldRuntime:
		return &v.Runtime
	case FieldNotes:
		return &v.Notes
	}
	return nil
}

// CreateRequest builds a create payload. Numbers that fail to parse become zero.
func (v FormValues) CreateRequest() models.CreateItemRequest {
	return models.CreateItemRequest{
		UPC:           strings.TrimSpace(v.UPC),
		Title:         strings.TrimSpace(v.Title),
		Year:          atoiOrZero(v.Year),
		Director:      strings.TrimSpace(v.Director),
		Genre:         strings.TrimSpace(v.Genre),
		Format:        strings.TrimSpace(v.Format),
		Sides:         atoiOrZero(v.Sides),
		Runtime:       atoiOrZero(v.Runtime),
		CoverImageURL: coverOrEmpty(v.CoverImageURL),
		LDDBURL:       strings.TrimSpace(v.LDDBURL),
		Notes:         strings.TrimSpace(v.Notes),
	}
}

// UpdateRequest builds a partial update. Empty fields and numbers that fail to parse are
// left out so the stored values are kept.
func (v FormValues) UpdateRequest() models.UpdateItemRequest {
	var req models.UpdateItemRequest
	req.UPC = nonEmpty(v.UPC)
	req.Title = nonEmpty(v.Title)
	req.Year = parsed(v.Year)
	req.Director = nonEmpty(v.Director)
	req.Genre = nonEmpty(v.Genre)
	req.Format = nonEmpty(v.Format)
	req.Sides = parsed(v.Sides)
	req.Runtime = parsed(v.Runtime)
	req.Notes = nonEmpty(v.Notes)
	if models.IsDisplayableCover(strings.TrimSpace(v.CoverImageURL)) {
		req.CoverImageURL = nonEmpty(v.CoverImageURL)
	}
	req.LDDBURL = nonEmpty(v.LDDBURL)
	return req
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func parsed(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func coverOrEmpty(url string) string {
	url = strings.TrimSpace(url)
	if !models.IsDisplayableCover(url) {
		return ""
	}
	return url
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// Form is the view-model behind the manual entry field and the add/edit form. Safe for
// concurrent use.
type Form struct {
	mu          sync.RWMutex
	values      FormValues
	manual      string
	editing     uint
	coverHidden bool
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// Values returns a copy of the current values.
func (f *Form) Values() FormValues {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values
}

// SetValues replaces every value.
func (f *Form) SetValues(v FormValues) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = v
	f.coverHidden = false
}

// SetField updates one field.
func (f *Form) SetField(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values.Set(field, value)
}

// Manual returns the manual-entry code.
func (f *Form) Manual() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.manual
}

// SetManual writes a code into the manual-entry field.
func (f *Form) SetManual(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manual = code
}

// EditingID is the item the edit form belongs to, or 0 when adding.
func (f *Form) EditingID() uint {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.editing
}

// Reset clears the form, the manual entry and the cover preview.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = FormValues{}
	f.manual = ""
	f.editing = 0
	f.coverHidden = false
}

// PopulateLookup pre-fills the add form from a lookup result.
func (f *Form) PopulateLookup(r models.LookupResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editing = 0
	f.coverHidden = false
	f.values = FormValues{
		UPC:           r.UPC,
		Title:         r.Title,
		Year:          itoa(r.Year),
		Director:      r.Director,
		Genre:         r.Genre,
		Format:        r.Format,
		Sides:         itoa(r.Sides),
		Runtime:       itoa(r.Runtime),
		CoverImageURL: coverOrEmpty(r.CoverImageURL),
		LDDBURL:       r.LDDBURL,
	}
}

// PopulateItem fills the edit form from an item in the collection.
func (f *Form) PopulateItem(item models.CatalogItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editing = item.ID
	f.coverHidden = false
	f.values = FormValues{
		UPC:           item.UPC,
		Title:         item.Title,
		Year:          itoa(item.Year),
		Director:      item.Director,
		Genre:         item.Genre,
		Format:        item.Format,
		Sides:         itoa(item.Sides),
		Runtime:       itoa(item.Runtime),
		Notes:         item.Notes,
		CoverImageURL: coverOrEmpty(item.CoverImageURL),
		LDDBURL:       item.LDDBURL,
	}
}

// Cover returns the preview URL and whether the preview should be shown.
func (f *Form) Cover() (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	url := f.values.CoverImageURL
	return url, models.IsDisplayableCover(url) && !f.coverHidden
}

// HideCover hides the preview, e.g. after the image failed to load.
func (f *Form) HideCover() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coverHidden = true
}
