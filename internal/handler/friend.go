package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rutina-app/rutina/internal/auth"
	"github.com/rutina-app/rutina/internal/model"
	"github.com/rutina-app/rutina/internal/store"
	"github.com/rutina-app/rutina/internal/websocket"
)

type FriendHandler struct {
	friendshipStore *store.FriendshipStore
	userStore       *store.UserStore
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewFriendHandler(fs *store.FriendshipStore, us *store.UserStore, hub *websocket.Hub, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{
		friendshipStore: fs,
		userStore:       us,
		hub:             hub,
		logger:          logger,
	}
}

type friendListResponse struct {
	Friends  []model.User       `json:"friends"`
	Incoming []model.Friendship `json:"incoming"`
}

// List returns the user's accepted friends and their incoming pending
// requests.
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	friends, err := h.friendshipStore.ListAcceptedFriends(userID)
	if err != nil {
		h.logger.Error("list friends", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list friends")
		return
	}
	incoming, err := h.friendshipStore.ListPendingForReceiver(userID)
	if err != nil {
		h.logger.Error("list pending requests", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}

	if friends == nil {
		friends = []model.User{}
	}
	if incoming == nil {
		incoming = []model.Friendship{}
	}
	writeJSON(w, http.StatusOK, friendListResponse{Friends: friends, Incoming: incoming})
}

type friendRequest struct {
	Email string `json:"email"`
}

// Request sends a friend request to the user with the given email.
func (h *FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req friendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	target, err := h.userStore.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.logger.Error("lookup user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send request")
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "no user with that email")
		return
	}
	if target.ID == userID {
		writeError(w, http.StatusUnprocessableEntity, "cannot befriend yourself")
		return
	}

	existing, err := h.friendshipStore.GetBetween(userID, target.ID)
	if err != nil {
		h.logger.Error("lookup friendship", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send request")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "a request between these users already exists")
		return
	}

	f, err := h.friendshipStore.Create(userID, target.ID)
	if err != nil {
		h.logger.Error("create friendship", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send request")
		return
	}

	h.hub.SendToUser(target.ID, websocket.NewMessage("friendship", "requested", f.ID, nil))
	writeJSON(w, http.StatusCreated, f)
}

type resolveRequest struct {
	Status string `json:"status"`
}

// Resolve accepts or rejects a pending request. Only the receiver may
// resolve, and only once.
func (h *FriendHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Status != "accepted" && req.Status != "rejected" {
		writeError(w, http.StatusBadRequest, "status must be accepted or rejected")
		return
	}

	ok, err := h.friendshipStore.UpdateStatus(id, userID, req.Status)
	if err != nil {
		h.logger.Error("update friendship", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve request")
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "request is not pending or not addressed to you")
		return
	}

	f, err := h.friendshipStore.GetByID(id)
	if err != nil {
		h.logger.Error("get friendship", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load request")
		return
	}
	if f != nil {
		h.hub.SendToUser(f.SenderID, websocket.NewMessage("friendship", req.Status, f.ID, nil))
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FriendHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	f, err := h.friendshipStore.GetByID(id)
	if err != nil {
		h.logger.Error("get friendship", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load friendship")
		return
	}
	if f == nil || (f.SenderID != userID && f.ReceiverID != userID) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.friendshipStore.Delete(id, userID); err != nil {
		h.logger.Error("delete friendship", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete friendship")
		return
	}

	other := f.SenderID
	if other == userID {
		other = f.ReceiverID
	}
	h.hub.SendToUser(other, websocket.NewMessage("friendship", "removed", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
