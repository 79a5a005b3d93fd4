package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rutina-app/rutina/internal/auth"
	"github.com/rutina-app/rutina/internal/habit"
	"github.com/rutina-app/rutina/internal/model"
	"github.com/rutina-app/rutina/internal/store"
	"github.com/rutina-app/rutina/internal/websocket"
)

type HabitHandler struct {
	service         *habit.Service
	habitStore      *store.HabitStore
	invitationStore *store.InvitationStore
	friendshipStore *store.FriendshipStore
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewHabitHandler(
	svc *habit.Service,
	hs *store.HabitStore,
	is *store.InvitationStore,
	fs *store.FriendshipStore,
	hub *websocket.Hub,
	logger *slog.Logger,
) *HabitHandler {
	return &HabitHandler{
		service:         svc,
		habitStore:      hs,
		invitationStore: is,
		friendshipStore: fs,
		hub:             hub,
		logger:          logger,
	}
}

type habitRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Frequency    string  `json:"frequency"`
	SelectedDays []int   `json:"selected_days"`
	Color        string  `json:"color"`
	SharedWith   []int64 `json:"shared_with"`
}

func (req *habitRequest) validate() (start, end time.Time, freq habit.Frequency, err error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return start, end, freq, errors.New("name is required")
	}
	start, err = time.ParseInLocation(dateLayout, req.StartDate, time.UTC)
	if err != nil {
		return start, end, freq, errors.New("invalid start_date")
	}
	end, err = time.ParseInLocation(dateLayout, req.EndDate, time.UTC)
	if err != nil {
		return start, end, freq, errors.New("invalid end_date")
	}
	if end.Before(start) {
		return start, end, freq, errors.New("end_date precedes start_date")
	}
	freq, err = habit.ParseFrequency(req.Frequency, req.SelectedDays)
	if err != nil {
		return start, end, freq, err
	}
	if req.Color == "" {
		req.Color = "#93C5FD"
	}
	return start, end, freq, nil
}

// List returns the habits the user owns or participates in, with role and
// join date.
func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	parts, err := h.habitStore.ListParticipating(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list habits", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list habits")
		return
	}
	if parts == nil {
		parts = []model.Participation{}
	}
	writeJSON(w, http.StatusOK, parts)
}

func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req habitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	start, end, freq, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.checkInvitees(userID, req.SharedWith); err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := h.habitStore.Create(userID, req.Name, req.Description, start, end, string(freq), req.SelectedDays, req.Color)
	if err != nil {
		h.logger.Error("create habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create habit")
		return
	}

	for _, inviteeID := range req.SharedWith {
		if _, err := h.service.CreateInvitation(userID, created.ID, inviteeID); err != nil {
			h.logger.Error("create invitation", "habit_id", created.ID, "invitee", inviteeID, "error", err)
			continue
		}
		h.hub.SendToUser(inviteeID, websocket.NewMessage("invitation", "received", created.ID, nil))
	}

	h.hub.Broadcast(websocket.NewMessage("habit", "created", created.ID, nil))
	writeJSON(w, http.StatusCreated, created)
}

func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	m, err := h.service.ResolveMembership(userID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if m.Role == habit.RoleNone {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	hab, err := h.habitStore.GetByID(id)
	if err != nil {
		h.logger.Error("get habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load habit")
		return
	}

	// Only the owner sees the invitation list and its statuses.
	var invitations []model.HabitInvitation
	if m.Role == habit.RoleOwner {
		invitations, err = h.invitationStore.ListForHabit(id)
		if err != nil {
			h.logger.Error("list invitations", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load habit")
			return
		}
	}

	resp := struct {
		*model.Habit
		Membership  habit.Membership        `json:"membership"`
		Invitations []model.HabitInvitation `json:"invitations,omitempty"`
	}{hab, m, invitations}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req habitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	start, end, freq, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.habitStore.GetOwned(id, userID)
	if err != nil {
		h.logger.Error("get habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load habit")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.checkInvitees(userID, req.SharedWith); err != nil {
		writeDomainError(w, err)
		return
	}

	updated, err := h.habitStore.Update(id, userID, req.Name, req.Description, start, end, string(freq), req.SelectedDays, req.Color)
	if err != nil {
		h.logger.Error("update habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update habit")
		return
	}

	// Sync the share list: drop invitations for users no longer listed,
	// invite the rest. Pending and accepted rows for kept users survive.
	if err := h.invitationStore.DeleteExcept(id, req.SharedWith); err != nil {
		h.logger.Error("sync invitations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update sharing")
		return
	}
	for _, inviteeID := range req.SharedWith {
		if _, err := h.service.CreateInvitation(userID, id, inviteeID); err != nil {
			h.logger.Error("create invitation", "habit_id", id, "invitee", inviteeID, "error", err)
			continue
		}
		h.hub.SendToUser(inviteeID, websocket.NewMessage("invitation", "received", id, nil))
	}

	h.hub.Broadcast(websocket.NewMessage("habit", "updated", id, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.habitStore.GetOwned(id, userID)
	if err != nil {
		h.logger.Error("get habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load habit")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.habitStore.Delete(id, userID); err != nil {
		h.logger.Error("delete habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete habit")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("habit", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// checkInvitees verifies every prospective sharer before any write happens.
func (h *HabitHandler) checkInvitees(ownerID int64, invitees []int64) error {
	for _, inviteeID := range invitees {
		if inviteeID == ownerID {
			return habit.ErrIneligibleInvitee
		}
		friends, err := h.friendshipStore.AreFriends(ownerID, inviteeID)
		if err != nil {
			return err
		}
		if !friends {
			return habit.ErrIneligibleInvitee
		}
	}
	return nil
}

// ListInvitations returns the user's incoming invitations, pending by
// default, filtered by ?status=.
func (h *HabitHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	status := habit.InvitationPending
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := habit.ParseInvitationStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	invs, err := h.invitationStore.ListForUserByStatus(userID, status)
	if err != nil {
		h.logger.Error("list invitations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list invitations")
		return
	}
	if invs == nil {
		invs = []model.HabitInvitation{}
	}
	writeJSON(w, http.StatusOK, invs)
}

func (h *HabitHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, habit.InvitationPending, habit.InvitationAccepted)
}

func (h *HabitHandler) RefuseInvitation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, habit.InvitationPending, habit.InvitationRefused)
}

func (h *HabitHandler) AbandonInvitation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, habit.InvitationAccepted, habit.InvitationAbandoned)
}

func (h *HabitHandler) transition(w http.ResponseWriter, r *http.Request, from, to habit.InvitationStatus) {
	userID := auth.UserID(r.Context())
	habitID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.service.TransitionInvitation(habitID, userID, from, to); err != nil {
		writeDomainError(w, err)
		return
	}

	// Tell the owner their invitation moved.
	if hab, err := h.habitStore.GetByID(habitID); err == nil && hab != nil {
		h.hub.SendToUser(hab.UserID, websocket.NewMessage("invitation", string(to), habitID, map[string]any{"user_id": userID}))
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(to)})
}

type statisticsResponse struct {
	Days    []habit.DayStat    `json:"days"`
	Friends []friendStatistics `json:"friends,omitempty"`
}

type friendStatistics struct {
	UserID int64           `json:"user_id"`
	Name   string          `json:"name"`
	Days   []habit.DayStat `json:"days"`
}

// Statistics returns the per-day completed/failed series for the user over
// [start, end], plus the same series for each accepted friend when
// ?friends=true.
func (h *HabitHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

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

	days, err := h.service.Statistics(userID, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := statisticsResponse{Days: days}
	if r.URL.Query().Get("friends") == "true" {
		friends, err := h.friendshipStore.ListAcceptedFriends(userID)
		if err != nil {
			h.logger.Error("list friends", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load friends")
			return
		}
		for _, f := range friends {
			fDays, err := h.service.Statistics(f.ID, start, end)
			if err != nil {
				h.logger.Error("friend statistics", "friend_id", f.ID, "error", err)
				continue
			}
			resp.Friends = append(resp.Friends, friendStatistics{UserID: f.ID, Name: f.Name, Days: fDays})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
