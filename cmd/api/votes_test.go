package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"worthit/internal/consensus"
	"worthit/internal/events"
	"worthit/internal/store"

	"go.uber.org/zap"
)

type fakeDishes struct {
	dishes map[int64]*store.Dish
}

func (f *fakeDishes) GetByID(_ context.Context, id int64) (*store.Dish, error) {
	d, ok := f.dishes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (f *fakeDishes) FindByNormalizedName(context.Context, int64, string) (int64, bool, error) {
	return 0, false, nil
}

func (f *fakeDishes) ListByRestaurant(context.Context, int64) ([]store.Dish, error) {
	return nil, nil
}

type fakeVotes struct {
	tallies      map[int64][2]int // dishID -> {yes, total}
	byRestaurant map[int64][]store.DishTally
}

func (f *fakeVotes) Cast(context.Context, *store.Vote) error { return nil }

func (f *fakeVotes) Tally(_ context.Context, dishID int64) (int, int, error) {
	t := f.tallies[dishID]
	return t[0], t[1], nil
}

func (f *fakeVotes) TallyForRestaurant(_ context.Context, restaurantID int64) ([]store.DishTally, error) {
	return f.byRestaurant[restaurantID], nil
}

func newTestApplication(t *testing.T, storage store.Storage) *application {
	t.Helper()
	return &application{
		config:    config{env: "test"},
		store:     storage,
		consensus: consensus.DefaultConfig(),
		logger:    zap.NewNop().Sugar(),
		sink:      events.NopSink{},
	}
}

func executeRequest(req *http.Request, mux http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestDishConsensusEndpoint(t *testing.T) {
	app := newTestApplication(t, store.Storage{
		Dishes: &fakeDishes{dishes: map[int64]*store.Dish{
			7: {ID: 7, RestaurantID: 1, Name: "Lobster Roll"},
		}},
		Votes: &fakeVotes{tallies: map[int64][2]int{7: {8, 10}}},
	})
	mux := app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/dishes/7/consensus", nil)
	rr := executeRequest(req, mux)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		Data consensus.ConsensusResult `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Label != consensus.LabelCertified {
		t.Errorf("expected label %q, got %q", consensus.LabelCertified, body.Data.Label)
	}
	if body.Data.PercentWorthIt != 80 {
		t.Errorf("expected 80 percent, got %d", body.Data.PercentWorthIt)
	}
	if !body.Data.ShowBadge {
		t.Error("expected badge to be shown at 10 votes")
	}
}

func TestDishConsensusUnknownDish(t *testing.T) {
	app := newTestApplication(t, store.Storage{
		Dishes: &fakeDishes{dishes: map[int64]*store.Dish{}},
		Votes:  &fakeVotes{},
	})
	mux := app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/dishes/99/consensus", nil)
	rr := executeRequest(req, mux)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestRankedDishesFiltersAndSorts(t *testing.T) {
	app := newTestApplication(t, store.Storage{
		Votes: &fakeVotes{byRestaurant: map[int64][]store.DishTally{
			1: {
				{DishID: 1, Name: "Pad Thai", YesVotes: 13, TotalVotes: 20},
				{DishID: 2, Name: "Green Curry", YesVotes: 2, TotalVotes: 3}, // below ranking threshold
				{DishID: 3, Name: "Mango Sticky Rice", YesVotes: 9, TotalVotes: 10},
			},
		}},
	})
	mux := app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/restaurants/1/dishes/ranked", nil)
	rr := executeRequest(req, mux)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		Data []rankedDish `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 2 {
		t.Fatalf("expected 2 ranked dishes, got %d", len(body.Data))
	}
	if body.Data[0].DishID != 3 {
		t.Errorf("expected dish 3 (90%%) first, got dish %d", body.Data[0].DishID)
	}
	if body.Data[1].DishID != 1 {
		t.Errorf("expected dish 1 (65%%) second, got dish %d", body.Data[1].DishID)
	}
}

func TestHealthRequiresBasicAuth(t *testing.T) {
	app := newTestApplication(t, store.Storage{})
	mux := app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rr := executeRequest(req, mux)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
