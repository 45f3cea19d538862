package main

import (
	"fmt"
	"net/http"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "resource not found")
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path)

	writeJSONError(w, http.StatusForbidden, "forbidden")
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

// rateLimitExceededResponse tells the caller where they stand against
// the daily submission budget.
func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, limitPerDay, countToday int) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	type envelope struct {
		Success     bool   `json:"success"`
		Message     string `json:"message"`
		LimitPerDay int    `json:"limit_per_day"`
		CountToday  int    `json:"count_today"`
	}
	writeJSON(w, http.StatusTooManyRequests, &envelope{
		Success:     false,
		Message:     fmt.Sprintf("daily submission limit of %d reached", limitPerDay),
		LimitPerDay: limitPerDay,
		CountToday:  countToday,
	})
}

// duplicateFoundResponse points the caller at the existing entry so
// the client can offer "vote on it instead".
func (app *application) duplicateFoundResponse(w http.ResponseWriter, r *http.Request, kind string, existingID int64, existing string) {
	app.logger.Infow("duplicate submission", "method", r.Method, "path", r.URL.Path, "kind", kind, "existing_id", existingID)

	type envelope struct {
		Success    bool   `json:"success"`
		Message    string `json:"message"`
		Kind       string `json:"kind"`
		ExistingID int64  `json:"existing_id"`
		Existing   string `json:"existing"`
	}
	writeJSON(w, http.StatusConflict, &envelope{
		Success:    false,
		Message:    fmt.Sprintf("a matching %s already exists", kind),
		Kind:       kind,
		ExistingID: existingID,
		Existing:   existing,
	})
}
