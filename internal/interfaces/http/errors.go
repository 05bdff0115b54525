package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"finsync/internal/domain/account"
	"finsync/internal/domain/household"
	"finsync/internal/domain/itemsync"
	"finsync/internal/shared/errs"
	"finsync/internal/shared/middleware"
)

// writeError translates an error kind into a status code. Upstream payloads,
// SQL errors and secrets only ever reach the log, never the body.
func writeError(w http.ResponseWriter, err error, op string) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		log.Printf("Error %s: %v", op, err)
	}
	http.Error(w, msg, status)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, itemsync.ErrSyncInProgress),
		errors.Is(err, itemsync.ErrCursorConflict):
		return http.StatusConflict, "Sync already in progress"
	case errors.Is(err, account.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, account.ErrNicknameTooLong),
		errors.Is(err, household.ErrInvalidName),
		errors.Is(err, household.ErrNameTooLong):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, errs.ErrUpstream):
		return http.StatusBadGateway, "Upstream provider error"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// validationMessage returns the cause attached to a validation error. These
// are written by our own code, so they are safe to show.
func validationMessage(err error) string {
	var e *errs.Error
	for cur := err; errors.As(cur, &e); cur = e.Err {
		if e.Kind == errs.ErrValidation && e.Err != nil {
			return e.Err.Error()
		}
		if e.Err == nil {
			break
		}
	}
	return "Invalid request"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func userIDFrom(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	return userID, ok && userID > 0
}
