package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"worthit/internal/domain/suggestion"
	"worthit/internal/params"

	"github.com/go-chi/chi/v5"
)

// AdminListSuggestions godoc
//
//	@Summary		List suggestions (admin)
//	@Description	Without filters, returns the pending review queue oldest-first. Status/kind filters and pagination supported.
//	@Tags			Admin Suggestions
//	@Produce		json
//	@Param			kind	query		string	false	"dish|restaurant"
//	@Param			status	query		string	false	"pending|approved|rejected|duplicate|cancelled"
//	@Param			page	query		int		false	"page number (default 1)"
//	@Param			limit	query		int		false	"page size (default 20, max 60)"
//	@Success		200		{object}	[]suggestion.Suggestion
//	@Failure		400		{object}	error
//	@Failure		403		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/suggestions [get]
func (app *application) adminListSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var kindPtr *suggestion.Kind
	if s := strings.TrimSpace(q.Get("kind")); s != "" {
		k := suggestion.Kind(s)
		switch k {
		case suggestion.KindDish, suggestion.KindRestaurant:
			kindPtr = &k
		default:
			app.badRequestResponse(w, r, fmt.Errorf("invalid kind"))
			return
		}
	}

	// No status filter means the live review queue. With a kind filter
	// the dedicated queue read applies; otherwise the queue spans both
	// kinds through the general listing, still oldest-first.
	rawStatus := strings.TrimSpace(q.Get("status"))
	if (rawStatus == "" || rawStatus == string(suggestion.StatusPending)) && kindPtr != nil {
		out, err := app.suggestions.ListPending(r.Context(), *kindPtr)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
		if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
			app.internalServerError(w, r, err)
		}
		return
	}

	st := suggestion.StatusPending
	if rawStatus != "" {
		st = suggestion.Status(rawStatus)
	}
	switch st {
	case suggestion.StatusPending, suggestion.StatusApproved, suggestion.StatusRejected, suggestion.StatusDuplicate, suggestion.StatusCancelled:
	default:
		app.badRequestResponse(w, r, fmt.Errorf("invalid status"))
		return
	}

	p := params.ParsePagination(q)
	out, err := app.suggestions.List(r.Context(), suggestion.Filter{
		Kind:   kindPtr,
		Status: &st,
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

type adminDecisionPayload struct {
	AdminNotes *string `json:"admin_notes,omitempty" validate:"omitempty,max=1000"`
}

type adminMarkDuplicatePayload struct {
	ExistingEntityID int64   `json:"existing_entity_id" validate:"required,gt=0"`
	AdminNotes       *string `json:"admin_notes,omitempty" validate:"omitempty,max=1000"`
}

// AdminApproveSuggestion godoc
//
//	@Summary		Approve a suggestion (admin)
//	@Description	Promotes the suggestion into a canonical dish/restaurant row. Promotion and status change are one transaction.
//	@Tags			Admin Suggestions
//	@Accept			json
//	@Produce		json
//	@Param			suggestionID	path		int						true	"Suggestion ID"
//	@Param			payload			body		adminDecisionPayload	false	"Optional admin note"
//	@Success		200				{object}	suggestion.Suggestion
//	@Failure		400				{object}	error
//	@Failure		404				{object}	error
//	@Failure		409				{object}	error
//	@Failure		500				{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/suggestions/{suggestionID}/approve [post]
func (app *application) adminApproveSuggestionHandler(w http.ResponseWriter, r *http.Request) {
	var payload adminDecisionPayload
	_ = readJSON(w, r, &payload) // allow empty body

	app.decideSuggestion(w, r, suggestion.ApproveDecision{Notes: payload.AdminNotes}, "suggestion.approved")
}

// AdminRejectSuggestion godoc
//
//	@Summary		Reject a suggestion (admin)
//	@Tags			Admin Suggestions
//	@Accept			json
//	@Produce		json
//	@Param			suggestionID	path		int						true	"Suggestion ID"
//	@Param			payload			body		adminDecisionPayload	false	"Optional admin note"
//	@Success		200				{object}	suggestion.Suggestion
//	@Failure		404				{object}	error
//	@Failure		409				{object}	error
//	@Failure		500				{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/suggestions/{suggestionID}/reject [post]
func (app *application) adminRejectSuggestionHandler(w http.ResponseWriter, r *http.Request) {
	var payload adminDecisionPayload
	_ = readJSON(w, r, &payload) // allow empty body

	app.decideSuggestion(w, r, suggestion.RejectDecision{Notes: payload.AdminNotes}, "suggestion.rejected")
}

// AdminMarkDuplicate godoc
//
//	@Summary		Mark a suggestion as duplicate (admin)
//	@Description	Links the suggestion to the entity it duplicates instead of creating a new one.
//	@Tags			Admin Suggestions
//	@Accept			json
//	@Produce		json
//	@Param			suggestionID	path		int							true	"Suggestion ID"
//	@Param			payload			body		adminMarkDuplicatePayload	true	"Existing entity + optional note"
//	@Success		200				{object}	suggestion.Suggestion
//	@Failure		400				{object}	error
//	@Failure		404				{object}	error
//	@Failure		409				{object}	error
//	@Failure		500				{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/suggestions/{suggestionID}/duplicate [post]
func (app *application) adminMarkDuplicateHandler(w http.ResponseWriter, r *http.Request) {
	var payload adminMarkDuplicatePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	app.decideSuggestion(w, r, suggestion.MarkDuplicateDecision{
		ExistingEntityID: payload.ExistingEntityID,
		Notes:            payload.AdminNotes,
	}, "suggestion.marked_duplicate")
}

func (app *application) decideSuggestion(w http.ResponseWriter, r *http.Request, decision suggestion.Decision, eventName string) {
	suggestionID, err := strconv.ParseInt(chi.URLParam(r, "suggestionID"), 10, 64)
	if err != nil || suggestionID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid suggestion ID"))
		return
	}

	admin := getUserFromContext(r)

	updated, err := app.suggestions.Decide(r.Context(), suggestionID, admin.ID, decision)
	if err != nil {
		var transition *suggestion.InvalidTransitionError
		switch {
		case errors.Is(err, suggestion.ErrSuggestionNotFound):
			app.notFoundResponse(w, r, err)
		case errors.As(err, &transition):
			app.conflictResponse(w, r, transition)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	payload := map[string]any{"suggestion_id": suggestionID}
	if updated.PromotedEntityID != nil {
		payload["promoted_entity_id"] = *updated.PromotedEntityID
	}
	app.sink.Emit(eventName, admin.ID, payload)

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}
