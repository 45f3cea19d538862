package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"worthit/internal/events"
)

// blockingBackend parks every SetFavorite call until the test releases
// it, so tests control the order in which completions arrive.
type blockingBackend struct {
	mu       sync.Mutex
	calls    []*call
	arrived  chan struct{}
	detailFn func(int64) (*DishDetail, error)
}

type call struct {
	dishID    int64
	favorited bool
	release   chan error
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{arrived: make(chan struct{}, 16)}
}

func (b *blockingBackend) SetFavorite(_ context.Context, dishID int64, favorited bool) error {
	c := &call{dishID: dishID, favorited: favorited, release: make(chan error)}
	b.mu.Lock()
	b.calls = append(b.calls, c)
	b.mu.Unlock()
	b.arrived <- struct{}{}
	return <-c.release
}

func (b *blockingBackend) FetchDetail(_ context.Context, dishID int64) (*DishDetail, error) {
	if b.detailFn != nil {
		return b.detailFn(dishID)
	}
	return nil, nil
}

func (b *blockingBackend) waitForCalls(t *testing.T, n int) []*call {
	t.Helper()
	for i := 0; i < n; i++ {
		<-b.arrived
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.calls) < n {
		t.Fatalf("expected %d backend calls, saw %d", n, len(b.calls))
	}
	return append([]*call(nil), b.calls...)
}

func TestToggleAppliesLocallyBeforeNetworkSettles(t *testing.T) {
	backend := newBlockingBackend()
	s := NewStore(1, backend, events.NopSink{})

	if got := s.Toggle(context.Background(), 10); !got {
		t.Fatal("toggle should report favorited immediately")
	}
	if !s.IsFavorite(10) {
		t.Fatal("local state should flip before the write settles")
	}

	calls := backend.waitForCalls(t, 1)
	calls[0].release <- nil
	s.Wait()

	if !s.IsFavorite(10) {
		t.Fatal("state should hold after a successful write")
	}
}

func TestFailedWriteRestoresPreviousState(t *testing.T) {
	backend := newBlockingBackend()
	s := NewStore(1, backend, events.NopSink{})
	s.Seed([]int64{10})
	s.details[10] = &DishDetail{DishID: 10, Name: "Lobster Roll", FavoriteRank: 3}

	if got := s.Toggle(context.Background(), 10); got {
		t.Fatal("toggle should report unfavorited immediately")
	}
	if s.Detail(10) != nil {
		t.Fatal("detail cache should clear with the removal")
	}

	calls := backend.waitForCalls(t, 1)
	calls[0].release <- errors.New("boom")
	s.Wait()

	if !s.IsFavorite(10) {
		t.Fatal("membership should be restored after the failed write")
	}
	d := s.Detail(10)
	if d == nil || d.Name != "Lobster Roll" || d.FavoriteRank != 3 {
		t.Fatalf("detail should be restored exactly, got %+v", d)
	}
}

func TestBackToBackTogglesConvergeToLastIssued(t *testing.T) {
	backend := newBlockingBackend()
	s := NewStore(1, backend, events.NopSink{})

	ctx := context.Background()
	s.Toggle(ctx, 10) // add
	s.Toggle(ctx, 10) // remove, back to the pre-toggle state

	calls := backend.waitForCalls(t, 2)

	// Release the remove completion first, then the add, so responses
	// arrive in the reverse of issue order.
	var add, remove *call
	for _, c := range calls {
		if c.favorited {
			add = c
		} else {
			remove = c
		}
	}
	remove.release <- nil
	add.release <- nil
	s.Wait()

	if s.IsFavorite(10) {
		t.Fatal("state should converge to not-favorited (last issued request)")
	}
}

func TestStaleFailureDoesNotRevertNewerToggle(t *testing.T) {
	backend := newBlockingBackend()
	s := NewStore(1, backend, events.NopSink{})

	// Wait for each write to reach the backend before issuing the next
	// toggle, so call index equals issue order.
	ctx := context.Background()
	s.Toggle(ctx, 10) // add -> in flight
	backend.waitForCalls(t, 1)
	s.Toggle(ctx, 10) // remove -> in flight
	backend.waitForCalls(t, 1)
	s.Toggle(ctx, 10) // add again -> in flight
	calls := backend.waitForCalls(t, 1)

	if len(calls) != 3 {
		t.Fatalf("expected 3 backend calls, saw %d", len(calls))
	}
	if !calls[0].favorited || calls[1].favorited || !calls[2].favorited {
		t.Fatalf("calls arrived out of issue order: %+v", calls)
	}

	// The failure lands on the first, superseded toggle; its revert
	// must be discarded. The newer completions settle normally.
	calls[0].release <- errors.New("timeout")
	calls[1].release <- nil
	calls[2].release <- nil
	s.Wait()

	if !s.IsFavorite(10) {
		t.Fatal("state should match the last issued toggle (favorited)")
	}
}

func TestDetailRefreshDiscardedWhenSuperseded(t *testing.T) {
	backend := newBlockingBackend()
	release := make(chan struct{})
	backend.detailFn = func(dishID int64) (*DishDetail, error) {
		<-release
		return &DishDetail{DishID: dishID, Name: "stale"}, nil
	}
	s := NewStore(1, backend, events.NopSink{})

	ctx := context.Background()
	s.Toggle(ctx, 10) // add
	calls := backend.waitForCalls(t, 1)
	calls[0].release <- nil // success; detail refresh starts and blocks

	s.Toggle(ctx, 10) // remove before the refresh lands
	calls = backend.waitForCalls(t, 1)
	close(release)
	calls[1].release <- nil
	s.Wait()

	if s.Detail(10) != nil {
		t.Fatal("superseded detail refresh must not repopulate the cache")
	}
	if s.IsFavorite(10) {
		t.Fatal("dish should not be favorited")
	}
}

func TestFavoritesSnapshot(t *testing.T) {
	backend := newBlockingBackend()
	s := NewStore(1, backend, events.NopSink{})
	s.Seed([]int64{1, 2, 3})

	favs := s.Favorites()
	if len(favs) != 3 {
		t.Fatalf("favorites = %v, want 3 entries", favs)
	}
}
