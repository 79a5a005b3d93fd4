package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rutina-app/rutina/internal/auth"
	"github.com/rutina-app/rutina/internal/habit"
	"github.com/rutina-app/rutina/internal/model"
	"github.com/rutina-app/rutina/internal/store"
	"github.com/rutina-app/rutina/internal/websocket"
)

type CompletionHandler struct {
	service         *habit.Service
	completionStore *store.CompletionStore
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewCompletionHandler(svc *habit.Service, cs *store.CompletionStore, hub *websocket.Hub, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{
		service:         svc,
		completionStore: cs,
		hub:             hub,
		logger:          logger,
	}
}

type completionRequest struct {
	Completed bool `json:"completed"`
}

// Upsert records a day's completion flag for the authenticated participant.
// Repeating the request with the same body is a no-op.
func (h *CompletionHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	habitID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	day, err := parseDateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	c, err := h.service.RecordCompletion(userID, habitID, day, req.Completed)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.hub.Broadcast(websocket.NewMessage("completion", "recorded", c.ID, map[string]any{
		"habit_id": habitID,
		"day":      day.Format(dateLayout),
	}))
	writeJSON(w, http.StatusOK, c)
}

// ListForHabit returns every participant's completions for a habit within a
// date range. Any participant may see the others' records on a shared habit.
func (h *CompletionHandler) ListForHabit(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	habitID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	start, err := parseDateQuery(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date")
		return
	}
	end, err := parseDateQuery(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date")
		return
	}
	if end.Before(start) {
		writeDomainError(w, habit.ErrInvalidRange)
		return
	}

	m, err := h.service.ResolveMembership(userID, habitID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if m.Role == habit.RoleNone {
		writeDomainError(w, habit.ErrMembershipRequired)
		return
	}

	completions, err := h.completionStore.ListForHabitInRange(habitID, start, end)
	if err != nil {
		h.logger.Error("list completions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list completions")
		return
	}
	if completions == nil {
		completions = []model.Completion{}
	}
	writeJSON(w, http.StatusOK, completions)
}

type mediaRequest struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Caption string `json:"caption"`
}

// SetMedia attaches media metadata to an existing completion. The file itself
// lives outside this service; only the reference is stored.
func (h *CompletionHandler) SetMedia(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	habitID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	day, err := parseDateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	var req mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if req.Kind != "image" && req.Kind != "video" {
		writeError(w, http.StatusBadRequest, "kind must be image or video")
		return
	}

	m, err := h.service.ResolveMembership(userID, habitID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if m.Role == habit.RoleNone {
		writeDomainError(w, habit.ErrMembershipRequired)
		return
	}

	ok, err := h.completionStore.SetMedia(userID, habitID, habit.DateOnly(day), req.Path, req.Kind, req.Caption)
	if err != nil {
		h.logger.Error("set completion media", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to attach media")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no completion recorded for this day")
		return
	}

	c, err := h.completionStore.GetForDay(userID, habitID, habit.DateOnly(day))
	if err != nil {
		h.logger.Error("get completion", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load completion")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CompletionHandler) ClearMedia(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	habitID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	day, err := parseDateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	ok, err := h.completionStore.ClearMedia(userID, habitID, habit.DateOnly(day))
	if err != nil {
		h.logger.Error("clear completion media", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear media")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no completion recorded for this day")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
