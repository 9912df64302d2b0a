package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ldx/internal/models"
	"github.com/gorilla/mux"
)

// FakeToken is the access token [FakeBackend] accepts.
const FakeToken = "LASER-DISC-1234"

// FakeBackend is an in-memory LDDB server for tests.
type FakeBackend struct {
	*httptest.Server

	mu       sync.Mutex
	items    map[uint]models.CatalogItem
	nextID   uint
	lookups  map[string]models.LookupResult
	refs     map[string]models.LookupResult
	failIDs  map[uint]int
	token    string
	requests []string
	now      func() time.Time
}

// NewFakeBackend starts a server seeded with items. It is closed with the test.
func NewFakeBackend(t *testing.T, items ...models.CatalogItem) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{
		items:   map[uint]models.CatalogItem{},
		lookups: map[string]models.LookupResult{},
		refs:    map[string]models.LookupResult{},
		failIDs: map[uint]int{},
		token:   FakeToken,
		now:     func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	for _, item := range items {
		fb.put(item)
	}

	fb.Server = httptest.NewServer(fb.router())
	t.Cleanup(fb.Close)
	return fb
}

func (fb *FakeBackend) router() http.Handler {
	r := mux.NewRouter()
	r.Use(fb.record)

	r.HandleFunc("/auth/validate", fb.validate).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(fb.auth)
	api.HandleFunc("/collection", fb.list).Methods(http.MethodGet)
	api.HandleFunc("/collection", fb.create).Methods(http.MethodPost)
	api.HandleFunc("/collection/{id:[0-9]+}", fb.update).Methods(http.MethodPut)
	api.HandleFunc("/collection/{id:[0-9]+}", fb.delete).Methods(http.MethodDelete)
	api.HandleFunc("/collection/{id:[0-9]+}/watched", fb.toggle).Methods(http.MethodPost)
	api.HandleFunc("/lookup/reference/{reference}", fb.lookupReference).Methods(http.MethodGet)
	api.HandleFunc("/lookup/{upc}", fb.lookupUPC).Methods(http.MethodGet)
	api.HandleFunc("/random-unwatched", fb.random).Methods(http.MethodGet)
	return r
}

// AddLookup registers a reference database entry by UPC.
func (fb *FakeBackend) AddLookup(result models.LookupResult) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	result.Found = true
	fb.lookups[result.UPC] = result
}

// AddReference registers a reference database entry by catalog reference.
func (fb *FakeBackend) AddReference(reference string, result models.LookupResult) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	result.Found = true
	fb.refs[reference] = result
}

// FailItem makes writes to id answer with status.
func (fb *FakeBackend) FailItem(id uint, status int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failIDs[id] = status
}

// SetToken changes the accepted token; empty disables auth.
func (fb *FakeBackend) SetToken(token string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.token = token
}

// Items returns the stored items ordered by id.
func (fb *FakeBackend) Items() []models.CatalogItem {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]models.CatalogItem, 0, len(fb.items))
	for _, item := range fb.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Item returns the stored item with id.
func (fb *FakeBackend) Item(id uint) (models.CatalogItem, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	item, ok := fb.items[id]
	return item, ok
}

// Requests returns "METHOD /path" for every request received.
func (fb *FakeBackend) Requests() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.requests...)
}

// RequestCount counts requests whose "METHOD /path" starts with prefix.
func (fb *FakeBackend) RequestCount(prefix string) int {
	n := 0
	for _, r := range fb.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (fb *FakeBackend) put(item models.CatalogItem) models.CatalogItem {
	if item.ID == 0 {
		fb.nextID++
		item.ID = fb.nextID
	} else if item.ID > fb.nextID {
		fb.nextID = item.ID
	}
	if item.AddedDate.IsZero() {
		item.AddedDate = fb.now()
	}
	item.UpdatedDate = fb.now()
	fb.items[item.ID] = item
	return item
}

func (fb *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.requests = append(fb.requests, r.Method+" "+r.URL.Path)
		fb.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (fb *FakeBackend) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		want := fb.token
		fb.mu.Unlock()

		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if got == "" {
			got = r.URL.Query().Get("token")
		}
		if want != "" && got != want {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid or missing access token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (fb *FakeBackend) validate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request format"})
		return
	}

	fb.mu.Lock()
	want := fb.token
	fb.mu.Unlock()

	if strings.ToUpper(strings.TrimSpace(req.Token)) != want {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid access token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Access granted", "token": want})
}

func (fb *FakeBackend) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 50
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid limit parameter (1-100)"})
			return
		}
		limit = n
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	search := strings.ToLower(q.Get("search"))

	all := fb.Items()
	var matched []models.CatalogItem
	stats := models.Stats{}
	for _, item := range all {
		stats.Total++
		if item.Watched {
			stats.Watched++
		} else {
			stats.Unwatched++
		}
		if search == "" || strings.Contains(strings.ToLower(item.Title), search) ||
			strings.Contains(strings.ToLower(item.Director), search) || strings.Contains(item.UPC, search) {
			matched = append(matched, item)
		}
	}

	page := []models.CatalogItem{}
	if offset < len(matched) {
		page = matched[offset:min(offset+limit, len(matched))]
	}

	writeJSON(w, http.StatusOK, models.CollectionPage{
		Items:      page,
		Pagination: models.Pagination{Total: int64(len(matched)), Limit: limit, Offset: offset},
		Stats:      stats,
	})
}

func (fb *FakeBackend) create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UPC == "" || req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request format"})
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, item := range fb.items {
		if item.UPC == req.UPC {
			writeJSON(w, http.StatusConflict, map[string]any{"error": "laserdisc with UPC " + req.UPC + " already exists"})
			return
		}
	}

	item := fb.put(models.CatalogItem{
		UPC: req.UPC, Title: req.Title, Year: req.Year, Director: req.Director, Genre: req.Genre,
		Format: req.Format, Sides: req.Sides, Runtime: req.Runtime, CoverImageURL: req.CoverImageURL,
		LDDBURL: req.LDDBURL, Notes: req.Notes,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"message": "LaserDisc added successfully", "laserdisc": item})
}

func (fb *FakeBackend) update(w http.ResponseWriter, r *http.Request) {
	id, item, ok := fb.lookupItem(w, r)
	if !ok {
		return
	}

	var req models.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request format"})
		return
	}

	fb.mu.Lock()
	req.Apply(&item)
	item = fb.put(item)
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"message": "LaserDisc updated successfully", "laserdisc": item, "id": id})
}

func (fb *FakeBackend) delete(w http.ResponseWriter, r *http.Request) {
	id, _, ok := fb.lookupItem(w, r)
	if !ok {
		return
	}
	fb.mu.Lock()
	delete(fb.items, id)
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "LaserDisc deleted successfully"})
}

func (fb *FakeBackend) toggle(w http.ResponseWriter, r *http.Request) {
	_, item, ok := fb.lookupItem(w, r)
	if !ok {
		return
	}

	fb.mu.Lock()
	item.Watched = !item.Watched
	item = fb.put(item)
	fb.mu.Unlock()

	status := "unwatched"
	if item.Watched {
		status = "watched"
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Watched status updated successfully", "status": status, "laserdisc": item})
}

func (fb *FakeBackend) lookupItem(w http.ResponseWriter, r *http.Request) (uint, models.CatalogItem, bool) {
	n, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid LaserDisc ID"})
		return 0, models.CatalogItem{}, false
	}
	id := uint(n)

	fb.mu.Lock()
	status, failing := fb.failIDs[id]
	item, found := fb.items[id]
	fb.mu.Unlock()

	if failing {
		writeJSON(w, status, map[string]any{"error": "Failed to update LaserDisc"})
		return 0, models.CatalogItem{}, false
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "LaserDisc not found"})
		return 0, models.CatalogItem{}, false
	}
	return id, item, true
}

func (fb *FakeBackend) lookupUPC(w http.ResponseWriter, r *http.Request) {
	upc := mux.Vars(r)["upc"]

	fb.mu.Lock()
	result, ok := fb.lookups[upc]
	var existing *models.CatalogItem
	for _, item := range fb.items {
		if item.UPC == upc {
			existing = &item
			break
		}
	}
	fb.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "LaserDisc not found", "upc": upc, "source": "lddb.com", "error": "no results"})
		return
	}

	resp := map[string]any{"source": "lddb.com", "result": result, "message": "LaserDisc information found in LDDB"}
	if existing != nil {
		resp["existing"] = existing
		resp["message"] = "LaserDisc found in LDDB (also exists in local collection)"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (fb *FakeBackend) lookupReference(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["reference"]

	fb.mu.Lock()
	result, ok := fb.refs[ref]
	fb.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "LaserDisc not found", "reference": ref, "source": "lddb.com"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "LaserDisc information found by reference", "source": "lddb.com", "reference": ref, "result": result})
}

func (fb *FakeBackend) random(w http.ResponseWriter, r *http.Request) {
	for _, item := range fb.Items() {
		if !item.Watched {
			writeJSON(w, http.StatusOK, map[string]any{"message": "Random unwatched LaserDisc selected", "laserdisc": item})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "No unwatched LaserDiscs found in collection"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
