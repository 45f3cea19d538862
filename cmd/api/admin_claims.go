package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"worthit/internal/domain/claim"
	"worthit/internal/mailer"
	"worthit/internal/params"
	"worthit/internal/store"

	"github.com/go-chi/chi/v5"
)

// AdminListClaims godoc
//
//	@Summary		List claims for review
//	@Tags			Admin
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status (pending, approved, rejected, cancelled)"
//	@Param			page	query		int		false	"Page number"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{array}		claim.Claim
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/claims [get]
func (app *application) adminListClaimsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	filter := claim.Filter{Page: p.Page, Limit: p.Limit}
	if raw := q.Get("status"); raw != "" {
		status := claim.Status(raw)
		switch status {
		case claim.StatusPending, claim.StatusApproved, claim.StatusRejected, claim.StatusCancelled:
			filter.Status = &status
		default:
			app.badRequestResponse(w, r, fmt.Errorf("unknown status %q", raw))
			return
		}
	}

	claims, err := app.claims.List(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, claims); err != nil {
		app.internalServerError(w, r, err)
	}
}

type claimDecisionPayload struct {
	AdminNotes *string `json:"admin_notes,omitempty" validate:"omitempty,max=1000"`
}

// AdminApproveClaim godoc
//
//	@Summary		Approve a claim
//	@Description	Grants the claimed role. Owner-role approvals are exclusive per restaurant.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			claimID	path		int						true	"Claim ID"
//	@Param			payload	body		claimDecisionPayload	false	"Decision notes"
//	@Success		200		{object}	claim.Claim
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/claims/{claimID}/approve [post]
func (app *application) adminApproveClaimHandler(w http.ResponseWriter, r *http.Request) {
	app.decideClaim(w, r, "claim.approved", mailer.ClaimApprovedTemplate, app.claims.Approve)
}

// AdminRejectClaim godoc
//
//	@Summary		Reject a claim
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			claimID	path		int						true	"Claim ID"
//	@Param			payload	body		claimDecisionPayload	false	"Decision notes"
//	@Success		200		{object}	claim.Claim
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/claims/{claimID}/reject [post]
func (app *application) adminRejectClaimHandler(w http.ResponseWriter, r *http.Request) {
	app.decideClaim(w, r, "claim.rejected", mailer.ClaimRejectedTemplate, app.claims.Reject)
}

func (app *application) decideClaim(
	w http.ResponseWriter,
	r *http.Request,
	event string,
	template string,
	decide func(ctx context.Context, id, adminID int64, notes *string) (*claim.Claim, error),
) {
	claimID, err := strconv.ParseInt(chi.URLParam(r, "claimID"), 10, 64)
	if err != nil || claimID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid claim ID"))
		return
	}

	// Notes are optional; an empty body is a valid decision.
	var payload claimDecisionPayload
	_ = readJSON(w, r, &payload)
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	admin := getUserFromContext(r)

	decided, err := decide(r.Context(), claimID, admin.ID, payload.AdminNotes)
	if err != nil {
		var transition *claim.InvalidTransitionError
		switch {
		case errors.Is(err, claim.ErrClaimNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, claim.ErrOwnershipConflict):
			app.conflictResponse(w, r, err)
		case errors.As(err, &transition):
			app.conflictResponse(w, r, transition)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.sink.Emit(event, admin.ID, map[string]any{
		"claim_id":      decided.ID,
		"restaurant_id": decided.RestaurantID,
		"claimant_id":   decided.UserID,
	})

	app.notifyClaimant(decided, template)

	if err := app.jsonResponse(w, http.StatusOK, decided); err != nil {
		app.internalServerError(w, r, err)
	}
}

// notifyClaimant emails the decision to the claimant in the background.
// The decision itself is already committed; mail failure is log-only.
func (app *application) notifyClaimant(c *claim.Claim, template string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), store.QueryTimeoutDuration)
		defer cancel()

		user, err := app.store.Users.GetByID(ctx, c.UserID)
		if err != nil {
			app.logger.Errorw("could not load claimant for decision email", "claim_id", c.ID, "error", err)
			return
		}
		restaurant, err := app.store.Restaurants.GetByID(ctx, c.RestaurantID)
		if err != nil {
			app.logger.Errorw("could not load restaurant for decision email", "claim_id", c.ID, "error", err)
			return
		}

		vars := struct {
			Username       string
			RestaurantName string
			AdminNotes     string
		}{
			Username:       user.Name,
			RestaurantName: restaurant.Name,
		}
		if c.AdminNotes != nil {
			vars.AdminNotes = *c.AdminNotes
		}

		status, err := app.mailer.Send(template, user.Name, user.Email, vars)
		if err != nil {
			app.logger.Errorw("error sending claim decision email", "claim_id", c.ID, "error", err)
			return
		}
		app.logger.Infow("claim decision email sent", "claim_id", c.ID, "status_code", status)
	}()
}
