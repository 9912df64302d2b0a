package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ldx/internal/collection"
	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/scanner"
	"github.com/desertthunder/ldx/internal/services"
	"github.com/desertthunder/ldx/internal/session"
	"github.com/desertthunder/ldx/internal/shared"
	tu "github.com/desertthunder/ldx/internal/testing"
)

type harness struct {
	ctrl    *Controller
	fb      *tu.FakeBackend
	api     *services.APIService
	tokens  *services.MemoryTokenStore
	center  *notify.Center
	confirm bool
}

func newHarness(t *testing.T, items ...models.CatalogItem) *harness {
	t.Helper()
	h := &harness{confirm: true}
	h.fb = tu.NewFakeBackend(t, items...)
	h.tokens = services.NewMemoryTokenStore(tu.FakeToken)
	h.api = services.NewAPIService(h.fb.URL, nil, h.tokens)
	h.center = notify.NewCenter(time.Minute, nil)

	coll := collection.NewManager(h.api, session.New(0), h.center, nil, nil)
	h.ctrl = New(Options{
		Backend:    h.api,
		Collection: coll,
		Notifier:   h.center,
		Confirmer:  notify.ConfirmFunc(func(string) bool { return h.confirm }),
	})
	h.api.OnError(h.ctrl.ReportError)
	h.api.OnUnauthorized(h.ctrl.RequireAuth)
	return h
}

func (h *harness) last(t *testing.T) notify.Notification {
	t.Helper()
	n, ok := h.center.Current()
	if !ok {
		t.Fatal("expected a notification")
	}
	return n
}

func (h *harness) messages() []string {
	var out []string
	for _, n := range h.center.History() {
		out = append(out, n.Message)
	}
	return out
}

func seed() []models.CatalogItem {
	return []models.CatalogItem{
		{UPC: upcA, Title: "Tron", Year: 1982, Director: "Steven Lisberger"},
		{UPC: "4006381333931", Title: "Alien", Year: 1979, Watched: true},
	}
}

const upcA = "012345678905"

func TestCreate(t *testing.T) {
	t.Run("Requires UPC And Title", func(t *testing.T) {
		h := newHarness(t)
		tests := []FormValues{
			{Title: "Tron"},
			{UPC: upcA},
			{UPC: "  ", Title: "  "},
		}
		for _, v := range tests {
			_, err := h.ctrl.Create(context.Background(), v)
			if !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation for %+v, got %v", v, err)
			}
			if n := h.last(t); n.Message != MsgRequired || n.Level != notify.Error {
				t.Errorf("unexpected notification %+v", n)
			}
		}
		if n := len(h.fb.Requests()); n != 0 {
			t.Errorf("expected no network calls, got %d", n)
		}
	})

	t.Run("Posts And Reloads", func(t *testing.T) {
		h := newHarness(t, seed()...)
		h.ctrl.Modals().Open(ModalAdd)
		h.ctrl.Form().SetManual("something")

		item, err := h.ctrl.Create(context.Background(), FormValues{
			UPC: "96385074", Title: " Brazil ", Year: "1985", Sides: "two", Runtime: "142",
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		stored, _ := h.fb.Item(item.ID)
		if stored.Title != "Brazil" || stored.Year != 1985 || stored.Sides != 0 || stored.Runtime != 142 {
			t.Errorf("unexpected stored item %+v", stored)
		}
		if n := h.last(t); n.Message != MsgAdded || n.Level != notify.Success {
			t.Errorf("unexpected notification %+v", n)
		}
		if h.ctrl.Modals().Current() != ModalNone {
			t.Error("expected modals closed")
		}
		if h.ctrl.Form().Manual() != "" || h.ctrl.Form().Values() != (FormValues{}) {
			t.Error("expected form reset")
		}
		if got := len(h.ctrl.State().Items()); got != 3 {
			t.Errorf("expected reloaded collection of 3, got %d", got)
		}
	})

	t.Run("Negative Numbers Rejected", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.ctrl.Create(context.Background(), FormValues{UPC: upcA, Title: "Tron", Year: "-1"})
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if h.fb.RequestCount("POST") != 0 {
			t.Error("expected no POST")
		}
	})
}

func TestUpdate(t *testing.T) {
	t.Run("Strips Empty Fields", func(t *testing.T) {
		h := newHarness(t, seed()...)

		_, err := h.ctrl.Update(context.Background(), 1, FormValues{Title: "Tron (1982)", Year: "", Director: "", Runtime: "abc"})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		stored, _ := h.fb.Item(1)
		if stored.Title != "Tron (1982)" || stored.Year != 1982 || stored.Director != "Steven Lisberger" {
			t.Errorf("expected only title changed, got %+v", stored)
		}
		if n := h.last(t); n.Message != MsgUpdated {
			t.Errorf("unexpected notification %+v", n)
		}
	})

	t.Run("Nothing To Send", func(t *testing.T) {
		h := newHarness(t, seed()...)
		item, err := h.ctrl.Update(context.Background(), 1, FormValues{Year: "soon"})
		if err != nil || item != nil {
			t.Fatalf("expected no-op, got %v %v", item, err)
		}
		if h.fb.RequestCount("PUT") != 0 {
			t.Error("expected no PUT")
		}
	})

	t.Run("Edit Flow", func(t *testing.T) {
		h := newHarness(t, seed()...)
		if err := h.ctrl.Load(context.Background(), "", 0); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		if err := h.ctrl.BeginEdit(1); err != nil {
			t.Fatalf("BeginEdit failed: %v", err)
		}
		if h.ctrl.Modals().Current() != ModalEdit || h.ctrl.Form().Values().Year != "1982" {
			t.Errorf("expected edit modal populated, got %v %+v", h.ctrl.Modals().Current(), h.ctrl.Form().Values())
		}
		if err := h.ctrl.Form().SetField(FieldNotes, "CAV pressing"); err != nil {
			t.Fatal(err)
		}
		if _, err := h.ctrl.SaveEdit(context.Background()); err != nil {
			t.Fatalf("SaveEdit failed: %v", err)
		}

		stored, _ := h.fb.Item(1)
		if stored.Notes != "CAV pressing" {
			t.Errorf("expected notes saved, got %+v", stored)
		}
		if h.ctrl.Modals().Current() != ModalNone {
			t.Error("expected modal closed")
		}

		if err := h.ctrl.BeginEdit(99); !errors.Is(err, shared.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
	})
}

func TestToggleAndDelete(t *testing.T) {
	t.Run("Toggle Watched", func(t *testing.T) {
		h := newHarness(t, seed()...)
		item, err := h.ctrl.ToggleWatched(context.Background(), 1)
		if err != nil {
			t.Fatalf("ToggleWatched failed: %v", err)
		}
		if !item.Watched || h.last(t).Message != MsgWatchedUpdated {
			t.Errorf("expected watched with notification, got %+v", item)
		}
		if h.fb.RequestCount("GET /api/collection") != 1 {
			t.Error("expected reload")
		}
	})

	t.Run("Delete Declined", func(t *testing.T) {
		h := newHarness(t, seed()...)
		h.confirm = false

		deleted, err := h.ctrl.Delete(context.Background(), 1)
		if err != nil || deleted {
			t.Fatalf("expected declined delete, got %v %v", deleted, err)
		}
		if h.fb.RequestCount("DELETE") != 0 {
			t.Error("expected no DELETE")
		}
	})

	t.Run("Delete Confirmed", func(t *testing.T) {
		h := newHarness(t, seed()...)
		var prompt string
		h.ctrl.confirm = notify.ConfirmFunc(func(p string) bool { prompt = p; return true })

		deleted, err := h.ctrl.Delete(context.Background(), 1)
		if err != nil || !deleted {
			t.Fatalf("Delete failed: %v", err)
		}
		if prompt != MsgDeleteConfirm {
			t.Errorf("unexpected prompt %q", prompt)
		}
		if _, ok := h.fb.Item(1); ok {
			t.Error("expected item removed")
		}
		if h.last(t).Message != MsgDeleted {
			t.Errorf("unexpected notification %+v", h.last(t))
		}
	})

	t.Run("Backend Failure Surfaces Once", func(t *testing.T) {
		h := newHarness(t, seed()...)
		h.fb.FailItem(1, http.StatusInternalServerError)

		if _, err := h.ctrl.ToggleWatched(context.Background(), 1); err == nil {
			t.Fatal("expected error")
		}
		msgs := h.messages()
		if len(msgs) != 1 || msgs[0] != "Error: Failed to update LaserDisc" {
			t.Errorf("expected one error notification, got %v", msgs)
		}
	})
}

func TestLookup(t *testing.T) {
	t.Run("Empty Input", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.ctrl.Lookup(context.Background(), "   "); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if n := h.last(t); n.Message != MsgEnterUPC || n.Level != notify.Error {
			t.Errorf("unexpected notification %+v", n)
		}
	})

	t.Run("Found By UPC", func(t *testing.T) {
		h := newHarness(t)
		h.fb.AddLookup(models.LookupResult{
			UPC: upcA, Title: "Tron", Year: 1982, Sides: 2,
			CoverImageURL: "https://www.lddb.com/images/visual/tron.jpg",
		})

		res, err := h.ctrl.Lookup(context.Background(), "0 12345 67890 5")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if res.Title != "Tron" {
			t.Errorf("unexpected result %+v", res)
		}
		if h.fb.RequestCount("GET /api/lookup/"+upcA) != 1 {
			t.Errorf("expected cleaned code in request, got %v", h.fb.Requests())
		}

		v := h.ctrl.Form().Values()
		if v.UPC != upcA || v.Year != "1982" || v.Sides != "2" || v.Runtime != "" {
			t.Errorf("unexpected form %+v", v)
		}
		if url, ok := h.ctrl.Form().Cover(); !ok || url == "" {
			t.Error("expected cover preview")
		}
		if h.ctrl.Modals().Current() != ModalAdd {
			t.Error("expected add modal")
		}
		msgs := h.messages()
		if len(msgs) != 2 || msgs[0] != MsgLookingUp || msgs[1] != MsgFound {
			t.Errorf("unexpected notifications %v", msgs)
		}
	})

	t.Run("Placeholder Cover Hidden", func(t *testing.T) {
		h := newHarness(t)
		h.fb.AddLookup(models.LookupResult{UPC: upcA, Title: "Tron", CoverImageURL: models.PlaceholderCover})

		if _, err := h.ctrl.Lookup(context.Background(), upcA); err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if _, ok := h.ctrl.Form().Cover(); ok {
			t.Error("expected placeholder cover hidden")
		}
	})

	t.Run("Found By Reference", func(t *testing.T) {
		h := newHarness(t)
		h.fb.AddReference("PILF-1234", models.LookupResult{UPC: upcA, Title: "Akira"})

		if _, err := h.ctrl.Lookup(context.Background(), "PILF-1234"); err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if h.fb.RequestCount("GET /api/lookup/reference/PILF-1234") != 1 {
			t.Errorf("expected reference lookup, got %v", h.fb.Requests())
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.ctrl.Lookup(context.Background(), upcA)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if n := h.last(t); n.Message != MsgNotFound || n.Level != notify.Warning {
			t.Errorf("unexpected notification %+v", n)
		}
		if h.ctrl.Modals().Current() != ModalNone {
			t.Error("expected no modal")
		}
	})

	t.Run("Handle Scan", func(t *testing.T) {
		h := newHarness(t)
		h.fb.AddLookup(models.LookupResult{UPC: upcA, Title: "Tron"})

		if _, err := h.ctrl.HandleScan(context.Background(), upcA); err != nil {
			t.Fatalf("HandleScan failed: %v", err)
		}
		if h.ctrl.Form().Manual() != upcA {
			t.Error("expected manual entry filled")
		}
	})
}

func TestRandomPick(t *testing.T) {
	t.Run("None Left", func(t *testing.T) {
		h := newHarness(t, models.CatalogItem{UPC: upcA, Title: "Tron", Watched: true})
		if _, err := h.ctrl.RandomPick(context.Background()); !errors.Is(err, shared.ErrNoUnwatched) {
			t.Errorf("expected ErrNoUnwatched, got %v", err)
		}
		if n := h.last(t); n.Message != MsgNoUnwatched || n.Level != notify.Info {
			t.Errorf("unexpected notification %+v", n)
		}
	})

	t.Run("Mark Watched", func(t *testing.T) {
		h := newHarness(t, seed()...)
		item, err := h.ctrl.RandomPick(context.Background())
		if err != nil {
			t.Fatalf("RandomPick failed: %v", err)
		}
		if pick, ok := h.ctrl.Modals().Random(); !ok || pick.ID != item.ID {
			t.Fatal("expected random modal with pick")
		}

		if err := h.ctrl.MarkRandomWatched(context.Background()); err != nil {
			t.Fatalf("MarkRandomWatched failed: %v", err)
		}
		if stored, _ := h.fb.Item(item.ID); !stored.Watched {
			t.Error("expected pick watched")
		}
		if h.ctrl.Modals().Current() != ModalNone {
			t.Error("expected modal closed")
		}
	})

	t.Run("Pick Another", func(t *testing.T) {
		h := newHarness(t, seed()...)
		if _, err := h.ctrl.RandomPick(context.Background()); err != nil {
			t.Fatal(err)
		}
		if _, err := h.ctrl.PickAnother(context.Background()); err != nil {
			t.Fatalf("PickAnother failed: %v", err)
		}
		if h.fb.RequestCount("GET /api/random-unwatched") != 2 || h.ctrl.Modals().Current() != ModalRandom {
			t.Error("expected a second pick in the random modal")
		}
	})
}

func TestAuth(t *testing.T) {
	t.Run("Unauthorized Redirects", func(t *testing.T) {
		h := newHarness(t, seed()...)
		changed := 0
		h.ctrl.OnChange(func() { changed++ })
		h.tokens.SetToken(context.Background(), "STALE-TOKEN-0000")

		if err := h.ctrl.Load(context.Background(), "", 0); err == nil {
			t.Fatal("expected load failure")
		}
		if !h.ctrl.AuthRequired() || !h.ctrl.LoadFailed() {
			t.Error("expected auth required and failed load")
		}
		if tok, _ := h.tokens.Token(context.Background()); tok != "" {
			t.Error("expected stored token cleared")
		}
		if changed != 1 {
			t.Errorf("expected one change notification, got %d", changed)
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		h := newHarness(t)
		h.tokens.ClearToken(context.Background())
		h.ctrl.RequireAuth()

		if err := h.ctrl.Authenticate(context.Background(), " laser-disc-1234 "); err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if tok, _ := h.tokens.Token(context.Background()); tok != tu.FakeToken {
			t.Errorf("expected token stored, got %q", tok)
		}
		if h.ctrl.AuthRequired() {
			t.Error("expected authenticated")
		}
	})

	t.Run("Invalid Token", func(t *testing.T) {
		h := newHarness(t)
		err := h.ctrl.Authenticate(context.Background(), "WRONG-TOKEN-0000")
		if !errors.Is(err, shared.ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
		if n := h.last(t); n.Message != MsgInvalidToken {
			t.Errorf("unexpected notification %+v", n)
		}
		if err := h.ctrl.Authenticate(context.Background(), "  "); !errors.Is(err, shared.ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for blank token, got %v", err)
		}
	})

	t.Run("Logout", func(t *testing.T) {
		h := newHarness(t)
		if err := h.ctrl.Logout(context.Background()); err != nil {
			t.Fatalf("Logout failed: %v", err)
		}
		if h.api.HasToken(context.Background()) || !h.ctrl.AuthRequired() {
			t.Error("expected token cleared")
		}
	})
}

type scanLog struct {
	mu   sync.Mutex
	recs []models.ScanRecord
}

func (s *scanLog) Create(_ context.Context, rec *models.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, *rec)
	return nil
}

func (s *scanLog) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

func TestScanBridge(t *testing.T) {
	fb := tu.NewFakeBackend(t)
	fb.AddLookup(models.LookupResult{UPC: scanner.DemoCode, Title: "The Abyss"})
	api := services.NewAPIService(fb.URL, nil, services.NewMemoryTokenStore(tu.FakeToken))
	center := notify.NewCenter(time.Minute, nil)

	engine := scanner.NewDemoEngine(scanner.DemoCode)
	engine.Interval = 0
	cfg := scanner.DefaultConfig()
	cfg.LookupDelay = time.Millisecond
	ui := scanner.NewScannerUI(scanner.NewController(engine, scanner.NewStaticCamera("demo"), cfg, center, nil), center)

	scans := &scanLog{}
	ctrl := New(Options{
		Backend:    api,
		Collection: collection.NewManager(api, session.New(0), center, nil, nil),
		Notifier:   center,
		Scanner:    ui,
		Scans:      scans,
	})
	done := make(chan struct{}, 4)
	ctrl.OnChange(func() { done <- struct{}{} })
	looked := make(chan string, 1)
	ctrl.OnScanLookup(func(code string, res *models.LookupResult, err error) {
		if err == nil && res != nil {
			looked <- res.Title
		}
	})

	if err := ctrl.OpenScan(context.Background()); err != nil {
		t.Fatalf("OpenScan failed: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for ctrl.Modals().Current() != ModalAdd {
		select {
		case <-done:
		case <-deadline:
			t.Fatalf("scan did not reach the add modal, got %v", ctrl.Modals().Current())
		}
	}

	if ctrl.Form().Manual() != scanner.DemoCode || ctrl.Form().Values().Title != "The Abyss" {
		t.Errorf("expected form filled from scan, got %q %+v", ctrl.Form().Manual(), ctrl.Form().Values())
	}
	if ui.Controller().IsActive() {
		t.Error("expected scanner stopped")
	}
	if scans.len() != 1 || scans.recs[0].Engine != "demo" {
		t.Errorf("expected one recorded scan, got %+v", scans.recs)
	}

	select {
	case title := <-looked:
		if title != "The Abyss" {
			t.Errorf("expected lookup hook with The Abyss, got %q", title)
		}
	case <-time.After(5 * time.Second):
		t.Error("expected scan lookup hook to run")
	}
}

func TestModalsStopScanner(t *testing.T) {
	engine := scanner.NewFakeEngine()
	ui := scanner.NewScannerUI(scanner.NewController(engine, scanner.NewStaticCamera("x"), scanner.DefaultConfig(), nil, nil), nil)
	fb := tu.NewFakeBackend(t)
	api := services.NewAPIService(fb.URL, nil, nil)
	ctrl := New(Options{Backend: api, Collection: collection.NewManager(api, session.New(0), nil, nil, nil), Scanner: ui})

	if err := ctrl.OpenScan(context.Background()); err != nil {
		t.Fatalf("OpenScan failed: %v", err)
	}
	if !engine.Running() {
		t.Fatal("expected scanner running")
	}

	ctrl.Modals().Open(ModalAdd)
	if engine.Running() || ui.Controller().IsActive() {
		t.Error("expected scanner stopped when switching modals")
	}
}

func TestScanStreamEnded(t *testing.T) {
	fb := tu.NewFakeBackend(t)
	api := services.NewAPIService(fb.URL, nil, services.NewMemoryTokenStore(tu.FakeToken))
	center := notify.NewCenter(time.Minute, nil)

	engine := scanner.NewWedgeEngine("-", strings.NewReader(""))
	ui := scanner.NewScannerUI(scanner.NewController(engine, scanner.NewStaticCamera("wedge"), scanner.DefaultConfig(), center, nil), center)
	ctrl := New(Options{
		Backend:    api,
		Collection: collection.NewManager(api, session.New(0), center, nil, nil),
		Notifier:   center,
		Scanner:    ui,
	})
	outcomes := make(chan error, 1)
	ctrl.OnScanLookup(func(code string, res *models.LookupResult, err error) {
		if code != "" || res != nil {
			t.Errorf("expected no code or result, got %q %+v", code, res)
		}
		outcomes <- err
	})

	if err := ctrl.OpenScan(context.Background()); err != nil {
		t.Fatalf("OpenScan failed: %v", err)
	}

	select {
	case err := <-outcomes:
		if !errors.Is(err, shared.ErrScannerNotRunning) {
			t.Errorf("expected ErrScannerNotRunning, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected the scan hook to learn the stream ended")
	}
	if ui.Controller().IsActive() {
		t.Error("expected scanner stopped")
	}
	if n := fb.RequestCount("GET /api/lookup"); n != 0 {
		t.Errorf("expected no lookup, got %d", n)
	}
}
