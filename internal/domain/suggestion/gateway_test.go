package suggestion

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"worthit/internal/events"
	"worthit/internal/ratelimiter"
)

type fakeStore struct {
	mu          sync.Mutex
	nextID      int64
	suggestions map[int64]*Suggestion
	createErrs  []error // popped per Create call before succeeding
}

func newFakeStore() *fakeStore {
	return &fakeStore{suggestions: make(map[int64]*Suggestion)}
}

func (f *fakeStore) Create(_ context.Context, in *CreateSuggestionInput) (*Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.nextID++
	s := &Suggestion{
		ID:              f.nextID,
		RefCode:         in.RefCode,
		Kind:            in.Kind,
		SubmitterID:     in.SubmitterID,
		Name:            in.Name,
		RestaurantID:    in.RestaurantID,
		Category:        in.Category,
		ExternalPlaceID: in.ExternalPlaceID,
		Status:          StatusPending,
	}
	f.suggestions[s.ID] = s
	return s, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.suggestions[id]
	if !ok {
		return nil, ErrSuggestionNotFound
	}
	return s, nil
}

func (f *fakeStore) List(context.Context, Filter) ([]Suggestion, error)           { return nil, nil }
func (f *fakeStore) ListPending(context.Context, Kind) ([]Suggestion, error)      { return nil, nil }
func (f *fakeStore) ListBySubmitter(context.Context, int64) ([]Suggestion, error) { return nil, nil }

func (f *fakeStore) FindLiveDuplicate(_ context.Context, in *CreateSuggestionInput) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.suggestions {
		if s.Status != StatusPending && s.Status != StatusApproved {
			continue
		}
		if s.Kind != in.Kind || NormalizeName(s.Name) != in.NameNormalized {
			continue
		}
		if in.Kind == KindDish {
			if s.RestaurantID != nil && in.RestaurantID != nil && *s.RestaurantID == *in.RestaurantID {
				return s.ID, true, nil
			}
			continue
		}
		return s.ID, true, nil
	}
	return 0, false, nil
}

func (f *fakeStore) Decide(context.Context, int64, int64, Decision) (*Suggestion, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) Cancel(context.Context, int64, int64) (*Suggestion, error) {
	return nil, errors.New("not implemented")
}

type fakeCatalog struct {
	dishFn        func(int64, string) (int64, bool, error)
	restNameFn    func(string) (int64, bool, error)
	restPlaceIDFn func(string) (int64, bool, error)
}

func (f *fakeCatalog) FindDishByName(_ context.Context, restaurantID int64, nameNorm string) (int64, bool, error) {
	if f.dishFn != nil {
		return f.dishFn(restaurantID, nameNorm)
	}
	return 0, false, nil
}

func (f *fakeCatalog) FindRestaurantByName(_ context.Context, nameNorm string) (int64, bool, error) {
	if f.restNameFn != nil {
		return f.restNameFn(nameNorm)
	}
	return 0, false, nil
}

func (f *fakeCatalog) FindRestaurantByPlaceID(_ context.Context, placeID string) (int64, bool, error) {
	if f.restPlaceIDFn != nil {
		return f.restPlaceIDFn(placeID)
	}
	return 0, false, nil
}

func newTestGateway(t *testing.T, repo Store, catalog Catalog, quota ratelimiter.DailyQuota) *Gateway {
	t.Helper()
	refCodes, err := NewRefCodeGenerator("test-salt")
	if err != nil {
		t.Fatal(err)
	}
	g := NewGateway(repo, catalog, quota, refCodes, events.NopSink{}, zap.NewNop().Sugar())
	g.retryBackoff = 0
	return g
}

func dishInput(submitterID int64, name string) *SubmitInput {
	restaurantID := int64(7)
	category := "seafood"
	return &SubmitInput{
		Kind:         KindDish,
		SubmitterID:  submitterID,
		Name:         name,
		RestaurantID: &restaurantID,
		Category:     &category,
	}
}

func TestSubmitValidation(t *testing.T) {
	g := newTestGateway(t, newFakeStore(), &fakeCatalog{}, ratelimiter.NewMemoryQuota(10))

	tests := []struct {
		name      string
		in        *SubmitInput
		wantField string
	}{
		{"empty name", &SubmitInput{Kind: KindDish, SubmitterID: 1, Name: "  "}, "name"},
		{"dish without restaurant", &SubmitInput{Kind: KindDish, SubmitterID: 1, Name: "Pho"}, "restaurant_id"},
		{
			"dish without category",
			func() *SubmitInput {
				in := dishInput(1, "Pho")
				in.Category = nil
				return in
			}(),
			"category",
		},
		{"unknown kind", &SubmitInput{Kind: Kind("drink"), SubmitterID: 1, Name: "Mojito"}, "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Submit(context.Background(), tt.in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("field = %s, want %s", vErr.Field, tt.wantField)
			}
		})
	}

	// Restaurant suggestions only require a name.
	if _, err := g.Submit(context.Background(), &SubmitInput{
		Kind: KindRestaurant, SubmitterID: 1, Name: "Sea Shack",
	}); err != nil {
		t.Fatalf("restaurant with only a name should pass: %v", err)
	}
}

func TestSubmitDuplicateAgainstLiveSuggestion(t *testing.T) {
	repo := newFakeStore()
	g := newTestGateway(t, repo, &fakeCatalog{}, ratelimiter.NewMemoryQuota(10))
	ctx := context.Background()

	if _, err := g.Submit(ctx, dishInput(1, "Lobster Roll")); err != nil {
		t.Fatalf("first submission: %v", err)
	}

	_, err := g.Submit(ctx, dishInput(2, "  lobster roll"))
	var dup *DuplicateFound
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateFound", err)
	}
	if dup.Existing != "suggestion" || dup.ExistingID != 1 {
		t.Errorf("dup = %+v, want suggestion 1", dup)
	}

	// Same normalized name, different restaurant: not a duplicate.
	in := dishInput(2, "Lobster Roll")
	otherRestaurant := int64(8)
	in.RestaurantID = &otherRestaurant
	if _, err := g.Submit(ctx, in); err != nil {
		t.Fatalf("different scope should not collide: %v", err)
	}
}

func TestSubmitDuplicateAgainstCatalog(t *testing.T) {
	catalog := &fakeCatalog{
		dishFn: func(restaurantID int64, nameNorm string) (int64, bool, error) {
			if restaurantID == 7 && nameNorm == "lobster roll" {
				return 99, true, nil
			}
			return 0, false, nil
		},
	}
	g := newTestGateway(t, newFakeStore(), catalog, ratelimiter.NewMemoryQuota(10))

	_, err := g.Submit(context.Background(), dishInput(1, "Lobster Roll"))
	var dup *DuplicateFound
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateFound", err)
	}
	if dup.Existing != "entity" || dup.ExistingID != 99 {
		t.Errorf("dup = %+v, want canonical entity 99", dup)
	}
}

func TestSubmitRestaurantDuplicateByPlaceID(t *testing.T) {
	catalog := &fakeCatalog{
		restPlaceIDFn: func(placeID string) (int64, bool, error) {
			if placeID == "place-123" {
				return 55, true, nil
			}
			return 0, false, nil
		},
	}
	g := newTestGateway(t, newFakeStore(), catalog, ratelimiter.NewMemoryQuota(10))

	placeID := "place-123"
	_, err := g.Submit(context.Background(), &SubmitInput{
		Kind:            KindRestaurant,
		SubmitterID:     1,
		Name:            "Totally New Name",
		ExternalPlaceID: &placeID,
	})
	var dup *DuplicateFound
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateFound", err)
	}
	if dup.ExistingID != 55 {
		t.Errorf("existing id = %d, want 55", dup.ExistingID)
	}
}

func TestSubmitRateLimitExactness(t *testing.T) {
	g := newTestGateway(t, newFakeStore(), &fakeCatalog{}, ratelimiter.NewMemoryQuota(10))

	var accepted, limited int64
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		n := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Distinct names so dedupe never interferes.
			_, err := g.Submit(context.Background(), dishInput(3, "Dish "+string(rune('A'+n))))
			switch {
			case err == nil:
				atomic.AddInt64(&accepted, 1)
			case errors.As(err, new(*RateLimitExceeded)):
				atomic.AddInt64(&limited, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 10 {
		t.Errorf("accepted = %d, want exactly 10", accepted)
	}
	if limited != 15 {
		t.Errorf("rate limited = %d, want exactly 15", limited)
	}
}

func TestSubmitRetriesTransientInsertOnce(t *testing.T) {
	repo := newFakeStore()
	repo.createErrs = []error{&pgconn.PgError{Code: "40001"}} // serialization failure, then success
	g := newTestGateway(t, repo, &fakeCatalog{}, ratelimiter.NewMemoryQuota(10))

	s, err := g.Submit(context.Background(), dishInput(1, "Khachapuri"))
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if s.Status != StatusPending {
		t.Errorf("status = %s, want pending", s.Status)
	}
}

func TestSubmitDoesNotRetryPermanentErrors(t *testing.T) {
	repo := newFakeStore()
	permanent := errors.New("column does not exist")
	repo.createErrs = []error{permanent, nil}
	g := newTestGateway(t, repo, &fakeCatalog{}, ratelimiter.NewMemoryQuota(10))

	_, err := g.Submit(context.Background(), dishInput(1, "Khachapuri"))
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v, want the permanent error surfaced", err)
	}
}

func TestSubmitSetsRefCode(t *testing.T) {
	g := newTestGateway(t, newFakeStore(), &fakeCatalog{}, ratelimiter.NewMemoryQuota(10))

	s, err := g.Submit(context.Background(), dishInput(1, "Bibimbap"))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.RefCode) < 3 || s.RefCode[:3] != "WI-" {
		t.Errorf("ref code = %q, want WI- prefix", s.RefCode)
	}
}
