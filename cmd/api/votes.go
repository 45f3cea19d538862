package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"worthit/internal/consensus"
	"worthit/internal/store"

	"github.com/go-chi/chi/v5"
)

type castVotePayload struct {
	WouldOrderAgain *bool `json:"would_order_again" validate:"required"`
	Rating          *int  `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
}

// CastVote godoc
//
//	@Summary		Vote on a dish
//	@Description	Records whether the caller would order the dish again. Re-voting overwrites the previous vote.
//	@Tags			Votes
//	@Accept			json
//	@Produce		json
//	@Param			dishID	path		int				true	"Dish ID"
//	@Param			payload	body		castVotePayload	true	"Vote payload"
//	@Success		200		{object}	store.Vote
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/dishes/{dishID}/votes [post]
func (app *application) castVoteHandler(w http.ResponseWriter, r *http.Request) {
	dishID, err := strconv.ParseInt(chi.URLParam(r, "dishID"), 10, 64)
	if err != nil || dishID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid dish ID"))
		return
	}

	var payload castVotePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.store.Dishes.GetByID(r.Context(), dishID); err != nil {
		app.notFoundResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	vote := &store.Vote{
		DishID:          dishID,
		UserID:          user.ID,
		WouldOrderAgain: *payload.WouldOrderAgain,
	}
	if payload.Rating != nil {
		vote.Rating = sql.NullInt16{Int16: int16(*payload.Rating), Valid: true}
	}

	if err := app.store.Votes.Cast(r.Context(), vote); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.sink.Emit("vote.cast", user.ID, map[string]any{
		"dish_id":           dishID,
		"would_order_again": *payload.WouldOrderAgain,
	})

	if err := app.jsonResponse(w, http.StatusOK, vote); err != nil {
		app.internalServerError(w, r, err)
	}
}

// DishConsensus godoc
//
//	@Summary		Consensus score for a dish
//	@Description	Derived from the live vote tally on every read; nothing is cached or stored.
//	@Tags			Votes
//	@Produce		json
//	@Param			dishID	path		int	true	"Dish ID"
//	@Success		200		{object}	consensus.ConsensusResult
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		500		{object}	error
//	@Router			/dishes/{dishID}/consensus [get]
func (app *application) dishConsensusHandler(w http.ResponseWriter, r *http.Request) {
	dishID, err := strconv.ParseInt(chi.URLParam(r, "dishID"), 10, 64)
	if err != nil || dishID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid dish ID"))
		return
	}

	if _, err := app.store.Dishes.GetByID(r.Context(), dishID); err != nil {
		app.notFoundResponse(w, r, err)
		return
	}

	yes, total, err := app.store.Votes.Tally(r.Context(), dishID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	result := consensus.Score(yes, total, app.consensus)

	if err := app.jsonResponse(w, http.StatusOK, result); err != nil {
		app.internalServerError(w, r, err)
	}
}

type rankedDish struct {
	DishID         int64                    `json:"dish_id"`
	Name           string                   `json:"name"`
	YesVotes       int                      `json:"yes_votes"`
	TotalVotes     int                      `json:"total_votes"`
	PercentWorthIt int                      `json:"percent_worth_it"`
	Label          consensus.Label          `json:"label"`
	ConfidenceTier consensus.ConfidenceTier `json:"confidence_tier"`
}

// RankedDishes godoc
//
//	@Summary		Ranked dishes for a restaurant
//	@Description	Only dishes past the ranking vote threshold appear, best percentage first.
//	@Tags			Votes
//	@Produce		json
//	@Param			restaurantID	path		int	true	"Restaurant ID"
//	@Success		200				{array}		rankedDish
//	@Failure		400				{object}	error
//	@Failure		500				{object}	error
//	@Router			/restaurants/{restaurantID}/dishes/ranked [get]
func (app *application) rankedDishesHandler(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := strconv.ParseInt(chi.URLParam(r, "restaurantID"), 10, 64)
	if err != nil || restaurantID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid restaurant ID"))
		return
	}

	tallies, err := app.store.Votes.TallyForRestaurant(r.Context(), restaurantID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	ranked := make([]rankedDish, 0, len(tallies))
	for _, t := range tallies {
		if !consensus.RankingEligible(t.TotalVotes, app.consensus) {
			continue
		}
		score := consensus.Score(t.YesVotes, t.TotalVotes, app.consensus)
		ranked = append(ranked, rankedDish{
			DishID:         t.DishID,
			Name:           t.Name,
			YesVotes:       t.YesVotes,
			TotalVotes:     t.TotalVotes,
			PercentWorthIt: score.PercentWorthIt,
			Label:          score.Label,
			ConfidenceTier: score.ConfidenceTier,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].PercentWorthIt != ranked[j].PercentWorthIt {
			return ranked[i].PercentWorthIt > ranked[j].PercentWorthIt
		}
		// More votes break percent ties.
		return ranked[i].TotalVotes > ranked[j].TotalVotes
	})

	if err := app.jsonResponse(w, http.StatusOK, ranked); err != nil {
		app.internalServerError(w, r, err)
	}
}
