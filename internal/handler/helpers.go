package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rutina-app/rutina/internal/habit"
)

const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the habit package's sentinel errors to HTTP statuses.
// Anything unrecognized is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, habit.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, habit.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "end date precedes start date")
	case errors.Is(err, habit.ErrMembershipRequired):
		writeError(w, http.StatusForbidden, "not a participant of this habit")
	case errors.Is(err, habit.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invitation is not in the expected state")
	case errors.Is(err, habit.ErrIneligibleInvitee):
		writeError(w, http.StatusUnprocessableEntity, "user is not an accepted friend")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func parsePathInt(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, r.PathValue(name), time.UTC)
}

func parseDateQuery(r *http.Request, name string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, r.URL.Query().Get(name), time.UTC)
}
