package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/ldx/internal/formatter"
	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
)

type pagedLister struct {
	items []models.CatalogItem
	calls int
	err   error
}

func (p *pagedLister) ListCollection(_ context.Context, q models.ListQuery) (*models.CollectionPage, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	end := min(q.Offset+q.Limit, len(p.items))
	page := []models.CatalogItem{}
	if q.Offset < len(p.items) {
		page = p.items[q.Offset:end]
	}
	return &models.CollectionPage{
		Items:      page,
		Pagination: models.Pagination{Total: int64(len(p.items)), Limit: q.Limit, Offset: q.Offset},
		Stats:      models.Stats{Total: int64(len(p.items))},
	}, nil
}

func makeItems(n int) []models.CatalogItem {
	items := make([]models.CatalogItem, n)
	for i := range items {
		items[i] = models.CatalogItem{ID: uint(i + 1), Title: fmt.Sprintf("Disc %d", i+1), Watched: i%2 == 0}
	}
	return items
}

func TestRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("All Succeed", func(t *testing.T) {
		var calls atomic.Int32
		prog := make(chan ProgressUpdate, 10)

		result := NewRunner(0, nil).Run(ctx, prog, MarkWatched, []uint{1, 2, 3}, func(context.Context, uint) error {
			calls.Add(1)
			return nil
		})

		if calls.Load() != 3 {
			t.Errorf("expected 3 calls, got %d", calls.Load())
		}
		if !result.OK() || len(result.Succeeded) != 3 || result.Err() != nil {
			t.Errorf("unexpected result %+v", result)
		}
		if len(prog) != 3 {
			t.Errorf("expected 3 progress updates, got %d", len(prog))
		}
		update := <-prog
		if update.Phase != MarkWatched || update.Total != 3 {
			t.Errorf("unexpected update %+v", update)
		}
	})

	t.Run("Partial Failure", func(t *testing.T) {
		boom := errors.New("boom")
		result := NewRunner(0, nil).Run(ctx, nil, DeleteItems, []uint{1, 2, 3, 4}, func(_ context.Context, id uint) error {
			if id%2 == 0 {
				return boom
			}
			return nil
		})

		if result.OK() {
			t.Fatal("expected failures")
		}
		if len(result.Succeeded) != 2 || len(result.Failed) != 2 {
			t.Errorf("expected 2/2 split, got %d/%d", len(result.Succeeded), len(result.Failed))
		}
		if !errors.Is(result.Err(), boom) {
			t.Errorf("expected joined error to wrap boom, got %v", result.Err())
		}
	})

	t.Run("Runs Concurrently", func(t *testing.T) {
		var inFlight, peak atomic.Int32
		release := make(chan struct{})
		done := make(chan *BulkResult)

		go func() {
			done <- NewRunner(0, nil).Run(ctx, nil, MarkWatched, []uint{1, 2, 3, 4, 5}, func(context.Context, uint) error {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				<-release
				inFlight.Add(-1)
				return nil
			})
		}()

		deadline := time.After(2 * time.Second)
		for peak.Load() < 5 {
			select {
			case <-deadline:
				t.Fatalf("expected all 5 requests in flight, peak %d", peak.Load())
			default:
				time.Sleep(time.Millisecond)
			}
		}
		close(release)
		if result := <-done; len(result.Succeeded) != 5 {
			t.Errorf("expected 5 successes, got %d", len(result.Succeeded))
		}
	})

	t.Run("Empty", func(t *testing.T) {
		result := NewRunner(0, nil).Run(ctx, nil, MarkWatched, nil, func(context.Context, uint) error {
			t.Error("fn should not be called")
			return nil
		})
		if !result.OK() || result.Total != 0 {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("Cancelled Context With Rate Limit", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		result := NewRunner(1, nil).Run(cctx, nil, MarkWatched, []uint{1, 2}, func(context.Context, uint) error {
			return nil
		})
		if len(result.Failed) != 2 {
			t.Errorf("expected both items to fail on a cancelled context, got %+v", result)
		}
	})

	t.Run("Full Progress Channel Does Not Block", func(t *testing.T) {
		prog := make(chan ProgressUpdate)
		result := NewRunner(0, nil).Run(ctx, prog, MarkWatched, []uint{1, 2}, func(context.Context, uint) error { return nil })
		if len(result.Succeeded) != 2 {
			t.Errorf("expected 2 successes, got %d", len(result.Succeeded))
		}
	})
}

func TestExport(t *testing.T) {
	ctx := context.Background()

	t.Run("Walks Every Page", func(t *testing.T) {
		src := &pagedLister{items: makeItems(7)}
		var buf bytes.Buffer

		n, err := NewRunner(0, nil).Export(ctx, nil, src, &buf, ExportOpts{Format: "json", PageSize: 3})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if n != 7 {
			t.Errorf("expected 7 items, got %d", n)
		}
		if src.calls != 3 {
			t.Errorf("expected 3 page fetches, got %d", src.calls)
		}

		var got formatter.Collection
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got.Items) != 7 || got.Items[6].Title != "Disc 7" {
			t.Errorf("unexpected export %+v", got.Items)
		}
	})

	t.Run("Applies Filter", func(t *testing.T) {
		src := &pagedLister{items: makeItems(4)}
		var buf bytes.Buffer

		n, err := NewRunner(0, nil).Export(ctx, nil, src, &buf, ExportOpts{Format: "csv", Filter: models.FilterUnwatched})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 unwatched items, got %d", n)
		}
	})

	t.Run("Unsupported Format", func(t *testing.T) {
		_, err := NewRunner(0, nil).Export(ctx, nil, &pagedLister{}, &bytes.Buffer{}, ExportOpts{Format: "xml"})
		if !errors.Is(err, shared.ErrUnsupportedEncoder) {
			t.Errorf("expected ErrUnsupportedEncoder, got %v", err)
		}
	})

	t.Run("Nil Source", func(t *testing.T) {
		_, err := NewRunner(0, nil).Export(ctx, nil, nil, &bytes.Buffer{}, ExportOpts{})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Fetch Error", func(t *testing.T) {
		_, err := NewRunner(0, nil).Export(ctx, nil, &pagedLister{err: errors.New("down")}, &bytes.Buffer{}, ExportOpts{})
		if err == nil {
			t.Error("expected error")
		}
	})

	t.Run("Progress Updates", func(t *testing.T) {
		prog := make(chan ProgressUpdate, 10)
		_, err := NewRunner(0, nil).Export(ctx, prog, &pagedLister{items: makeItems(2)}, &bytes.Buffer{}, ExportOpts{Format: "txt"})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		close(prog)

		var phases []Phase
		for u := range prog {
			phases = append(phases, u.Phase)
		}
		if len(phases) != 2 || phases[0] != FetchPage || phases[1] != WriteExport {
			t.Errorf("unexpected phases %v", phases)
		}
	})
}
