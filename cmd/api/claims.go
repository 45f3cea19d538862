package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"worthit/internal/domain/claim"

	"github.com/go-chi/chi/v5"
)

type submitClaimPayload struct {
	BusinessRole       string  `json:"business_role" validate:"required,oneof=owner manager staff"`
	VerificationMethod string  `json:"verification_method" validate:"required,oneof=phone email document"`
	VerificationNotes  *string `json:"verification_notes,omitempty" validate:"omitempty,max=1000"`
}

// SubmitClaim godoc
//
//	@Summary		Claim a restaurant
//	@Description	Files an ownership/management claim for admin review. At most one pending claim per (user, restaurant).
//	@Tags			Claims
//	@Accept			json
//	@Produce		json
//	@Param			restaurantID	path		int					true	"Restaurant ID"
//	@Param			payload			body		submitClaimPayload	true	"Claim payload"
//	@Success		201				{object}	claim.Claim
//	@Failure		400				{object}	error
//	@Failure		404				{object}	error
//	@Failure		409				{object}	error
//	@Failure		500				{object}	error
//	@Security		ApiKeyAuth
//	@Router			/restaurants/{restaurantID}/claims [post]
func (app *application) submitClaimHandler(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := strconv.ParseInt(chi.URLParam(r, "restaurantID"), 10, 64)
	if err != nil || restaurantID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid restaurant ID"))
		return
	}

	var payload submitClaimPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// Make sure the restaurant exists before filing paperwork on it.
	if _, err := app.store.Restaurants.GetByID(r.Context(), restaurantID); err != nil {
		app.notFoundResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	created, err := app.claims.Create(r.Context(), &claim.CreateClaimInput{
		RestaurantID:       restaurantID,
		UserID:             user.ID,
		BusinessRole:       claim.Role(payload.BusinessRole),
		VerificationMethod: claim.VerificationMethod(payload.VerificationMethod),
		VerificationNotes:  payload.VerificationNotes,
	})
	if err != nil {
		if errors.Is(err, claim.ErrDuplicateClaim) {
			app.conflictResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.sink.Emit("claim.submitted", user.ID, map[string]any{
		"claim_id":      created.ID,
		"restaurant_id": restaurantID,
		"role":          payload.BusinessRole,
	})

	if err := app.jsonResponse(w, http.StatusCreated, created); err != nil {
		app.internalServerError(w, r, err)
	}
}

// OwnershipStatus godoc
//
//	@Summary		Ownership status of a restaurant for the caller
//	@Tags			Claims
//	@Produce		json
//	@Param			restaurantID	path		int	true	"Restaurant ID"
//	@Success		200				{object}	claim.OwnershipStatus
//	@Failure		400				{object}	error
//	@Failure		500				{object}	error
//	@Security		ApiKeyAuth
//	@Router			/restaurants/{restaurantID}/ownership [get]
func (app *application) ownershipStatusHandler(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := strconv.ParseInt(chi.URLParam(r, "restaurantID"), 10, 64)
	if err != nil || restaurantID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid restaurant ID"))
		return
	}

	user := getUserFromContext(r)

	status, err := app.claims.GetOwnershipStatus(r.Context(), restaurantID, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, status); err != nil {
		app.internalServerError(w, r, err)
	}
}

// CancelClaim godoc
//
//	@Summary		Withdraw a pending claim
//	@Tags			Claims
//	@Produce		json
//	@Param			claimID	path		int	true	"Claim ID"
//	@Success		200		{object}	claim.Claim
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/claims/{claimID} [delete]
func (app *application) cancelClaimHandler(w http.ResponseWriter, r *http.Request) {
	claimID, err := strconv.ParseInt(chi.URLParam(r, "claimID"), 10, 64)
	if err != nil || claimID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid claim ID"))
		return
	}

	user := getUserFromContext(r)

	cancelled, err := app.claims.Cancel(r.Context(), claimID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, claim.ErrClaimNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, claim.ErrConflict):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, cancelled); err != nil {
		app.internalServerError(w, r, err)
	}
}
