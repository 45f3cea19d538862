// Package optimistic keeps a client-side mirror of the caller's
// favorite dishes that updates synchronously and reconciles with the
// backend asynchronously. Each toggle applies locally first, then
// issues the network write; failed writes restore the exact captured
// previous state, and completions from superseded toggles are
// discarded, so rapid toggle bursts always converge to the state of
// the last issued request no matter how the responses arrive.
package optimistic

import (
	"context"
	"sync"

	"worthit/internal/events"
)

// Backend is the network side of a favorites toggle.
type Backend interface {
	SetFavorite(ctx context.Context, dishID int64, favorited bool) error
	FetchDetail(ctx context.Context, dishID int64) (*DishDetail, error)
}

// DishDetail is the cached per-dish record alongside membership.
type DishDetail struct {
	DishID       int64
	Name         string
	FavoriteRank int
}

type command struct {
	seq          uint64
	prevMember   bool
	prevDetail   *DishDetail
	targetMember bool
}

type Store struct {
	mu      sync.Mutex
	userID  int64
	members map[int64]bool
	details map[int64]*DishDetail
	seqs    map[int64]uint64

	backend Backend
	sink    events.Sink

	// wg lets tests wait for in-flight completions.
	wg sync.WaitGroup
}

func NewStore(userID int64, backend Backend, sink events.Sink) *Store {
	return &Store{
		userID:  userID,
		members: make(map[int64]bool),
		details: make(map[int64]*DishDetail),
		seqs:    make(map[int64]uint64),
		backend: backend,
		sink:    sink,
	}
}

// Seed installs the server-confirmed favorites, typically at startup.
func (s *Store) Seed(dishIDs []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range dishIDs {
		s.members[id] = true
	}
}

// IsFavorite reports the current local state.
func (s *Store) IsFavorite(dishID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[dishID]
}

// Favorites returns a snapshot of the current local membership set.
func (s *Store) Favorites() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.members))
	for id, in := range s.members {
		if in {
			out = append(out, id)
		}
	}
	return out
}

// Detail returns the cached detail record, if any.
func (s *Store) Detail(dishID int64) *DishDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.details[dishID]
}

// Toggle flips the dish's favorite state locally and returns the new
// state immediately. The backend write runs in the background; its
// completion is applied only if no newer toggle for the dish has been
// issued since.
func (s *Store) Toggle(ctx context.Context, dishID int64) bool {
	s.mu.Lock()

	cmd := command{
		prevMember:   s.members[dishID],
		targetMember: !s.members[dishID],
	}
	if d := s.details[dishID]; d != nil {
		copied := *d
		cmd.prevDetail = &copied
	}

	s.seqs[dishID]++
	cmd.seq = s.seqs[dishID]

	// Apply locally before the network is involved.
	if cmd.targetMember {
		s.members[dishID] = true
	} else {
		delete(s.members, dishID)
		delete(s.details, dishID)
	}
	s.mu.Unlock()

	s.emit(dishID, cmd.targetMember)

	s.wg.Add(1)
	go s.flush(ctx, dishID, cmd)

	return cmd.targetMember
}

// Wait blocks until all in-flight backend writes have completed.
func (s *Store) Wait() {
	s.wg.Wait()
}

func (s *Store) flush(ctx context.Context, dishID int64, cmd command) {
	defer s.wg.Done()

	err := s.backend.SetFavorite(ctx, dishID, cmd.targetMember)

	s.mu.Lock()
	if s.seqs[dishID] != cmd.seq {
		// A newer toggle superseded this request; its completion
		// owns the final state.
		s.mu.Unlock()
		return
	}

	if err != nil {
		s.revert(dishID, cmd)
		s.mu.Unlock()
		s.emit(dishID, cmd.prevMember)
		return
	}
	s.mu.Unlock()

	if cmd.targetMember {
		s.refreshDetail(ctx, dishID, cmd.seq)
	}
}

// revert restores exactly the state captured before the toggle:
// membership and the cached detail record. Caller holds the lock.
func (s *Store) revert(dishID int64, cmd command) {
	if cmd.prevMember {
		s.members[dishID] = true
	} else {
		delete(s.members, dishID)
	}
	if cmd.prevDetail != nil {
		s.details[dishID] = cmd.prevDetail
	} else {
		delete(s.details, dishID)
	}
}

// refreshDetail fetches the detail record after a confirmed add. A
// fetch that lands after a newer toggle is discarded the same way as
// a stale write completion.
func (s *Store) refreshDetail(ctx context.Context, dishID int64, seq uint64) {
	detail, err := s.backend.FetchDetail(ctx, dishID)
	if err != nil || detail == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seqs[dishID] != seq || !s.members[dishID] {
		return
	}
	s.details[dishID] = detail
}

func (s *Store) emit(dishID int64, favorited bool) {
	name := "favorite.removed"
	if favorited {
		name = "favorite.added"
	}
	s.sink.Emit(name, s.userID, map[string]any{"dish_id": dishID})
}
