package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"worthit/internal/domain/suggestion"

	"github.com/go-chi/chi/v5"
)

type submitDishSuggestionPayload struct {
	Name         string  `json:"name" validate:"required,max=200"`
	RestaurantID int64   `json:"restaurant_id" validate:"required,gt=0"`
	Category     string  `json:"category" validate:"required,max=100"`
	Price        *string `json:"price,omitempty" validate:"omitempty,max=20"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// SubmitDishSuggestion godoc
//
//	@Summary		Suggest a new dish
//	@Description	Creates a pending dish suggestion for a restaurant. Counts against the caller's daily submission quota.
//	@Tags			Suggestions
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		submitDishSuggestionPayload	true	"Dish suggestion payload"
//	@Success		201		{object}	suggestion.Suggestion
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Failure		429		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/suggestions/dishes [post]
func (app *application) submitDishSuggestionHandler(w http.ResponseWriter, r *http.Request) {
	var payload submitDishSuggestionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	created, err := app.gateway.Submit(r.Context(), &suggestion.SubmitInput{
		Kind:         suggestion.KindDish,
		SubmitterID:  user.ID,
		Name:         payload.Name,
		RestaurantID: &payload.RestaurantID,
		Category:     &payload.Category,
		Price:        payload.Price,
		Notes:        payload.Notes,
	})
	if err != nil {
		app.submitErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, created); err != nil {
		app.internalServerError(w, r, err)
	}
}

type submitRestaurantSuggestionPayload struct {
	Name            string  `json:"name" validate:"required,max=200"`
	Address         *string `json:"address,omitempty" validate:"omitempty,max=300"`
	ExternalPlaceID *string `json:"external_place_id,omitempty" validate:"omitempty,max=128"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// SubmitRestaurantSuggestion godoc
//
//	@Summary		Suggest a new restaurant
//	@Description	Creates a pending restaurant suggestion. Counts against the caller's daily submission quota.
//	@Tags			Suggestions
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		submitRestaurantSuggestionPayload	true	"Restaurant suggestion payload"
//	@Success		201		{object}	suggestion.Suggestion
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error
//	@Failure		429		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/suggestions/restaurants [post]
func (app *application) submitRestaurantSuggestionHandler(w http.ResponseWriter, r *http.Request) {
	var payload submitRestaurantSuggestionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	created, err := app.gateway.Submit(r.Context(), &suggestion.SubmitInput{
		Kind:            suggestion.KindRestaurant,
		SubmitterID:     user.ID,
		Name:            payload.Name,
		Address:         payload.Address,
		ExternalPlaceID: payload.ExternalPlaceID,
		Notes:           payload.Notes,
	})
	if err != nil {
		app.submitErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, created); err != nil {
		app.internalServerError(w, r, err)
	}
}

// submitErrorResponse maps gateway errors onto HTTP. Validation,
// rate-limit and duplicate outcomes are deterministic and actionable;
// everything else is a server problem.
func (app *application) submitErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr  *suggestion.ValidationError
		rlErr *suggestion.RateLimitExceeded
		dup   *suggestion.DuplicateFound
	)
	switch {
	case errors.As(err, &vErr):
		app.badRequestResponse(w, r, vErr)
	case errors.As(err, &rlErr):
		app.rateLimitExceededResponse(w, r, rlErr.LimitPerDay, rlErr.CountToday)
	case errors.As(err, &dup):
		app.duplicateFoundResponse(w, r, string(dup.Kind), dup.ExistingID, dup.Existing)
	default:
		app.internalServerError(w, r, err)
	}
}

// ListMySuggestions godoc
//
//	@Summary		List the caller's suggestions
//	@Tags			Suggestions
//	@Produce		json
//	@Success		200	{array}		suggestion.Suggestion
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/suggestions/mine [get]
func (app *application) listMySuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	out, err := app.suggestions.ListBySubmitter(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

// CancelSuggestion godoc
//
//	@Summary		Withdraw a pending suggestion
//	@Description	Only the original submitter can cancel, and only while the suggestion is pending. Losing a race against an admin decision returns 409.
//	@Tags			Suggestions
//	@Produce		json
//	@Param			suggestionID	path		int	true	"Suggestion ID"
//	@Success		200				{object}	suggestion.Suggestion
//	@Failure		404				{object}	error
//	@Failure		409				{object}	error
//	@Failure		500				{object}	error
//	@Security		ApiKeyAuth
//	@Router			/suggestions/{suggestionID} [delete]
func (app *application) cancelSuggestionHandler(w http.ResponseWriter, r *http.Request) {
	suggestionID, err := strconv.ParseInt(chi.URLParam(r, "suggestionID"), 10, 64)
	if err != nil || suggestionID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid suggestion ID"))
		return
	}

	user := getUserFromContext(r)

	cancelled, err := app.suggestions.Cancel(r.Context(), suggestionID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, suggestion.ErrSuggestionNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, suggestion.ErrConflict):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.sink.Emit("suggestion.cancelled", user.ID, map[string]any{"suggestion_id": suggestionID})

	if err := app.jsonResponse(w, http.StatusOK, cancelled); err != nil {
		app.internalServerError(w, r, err)
	}
}
