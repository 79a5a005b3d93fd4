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

type MotivationHandler struct {
	motivationStore *store.MotivationStore
	friendshipStore *store.FriendshipStore
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewMotivationHandler(ms *store.MotivationStore, fs *store.FriendshipStore, hub *websocket.Hub, logger *slog.Logger) *MotivationHandler {
	return &MotivationHandler{
		motivationStore: ms,
		friendshipStore: fs,
		hub:             hub,
		logger:          logger,
	}
}

type motivationRequest struct {
	ReceiverID int64   `json:"receiver_id"`
	Message    string  `json:"message"`
	ImagePath  *string `json:"image_path"`
}

// Send delivers an encouragement message to an accepted friend.
func (h *MotivationHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req motivationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.ReceiverID == userID {
		writeError(w, http.StatusUnprocessableEntity, "cannot motivate yourself")
		return
	}

	friends, err := h.friendshipStore.AreFriends(userID, req.ReceiverID)
	if err != nil {
		h.logger.Error("check friendship", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send motivation")
		return
	}
	if !friends {
		writeError(w, http.StatusUnprocessableEntity, "user is not an accepted friend")
		return
	}

	m, err := h.motivationStore.Create(userID, req.ReceiverID, req.Message, req.ImagePath)
	if err != nil {
		h.logger.Error("create motivation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send motivation")
		return
	}

	h.hub.SendToUser(req.ReceiverID, websocket.NewMessage("motivation", "received", m.ID, nil))
	writeJSON(w, http.StatusCreated, m)
}

// Inbox returns motivations the user has not yet closed.
func (h *MotivationHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	motivations, err := h.motivationStore.ListOpenForReceiver(userID)
	if err != nil {
		h.logger.Error("list motivations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list motivations")
		return
	}
	if motivations == nil {
		motivations = []model.Motivation{}
	}
	writeJSON(w, http.StatusOK, motivations)
}

// Responses returns replies to the user's sent motivations that they have
// not yet dismissed.
func (h *MotivationHandler) Responses(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	motivations, err := h.motivationStore.ListOpenResponsesForSender(userID)
	if err != nil {
		h.logger.Error("list responses", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list responses")
		return
	}
	if motivations == nil {
		motivations = []model.Motivation{}
	}
	writeJSON(w, http.StatusOK, motivations)
}

type closeRequest struct {
	Reply *string `json:"reply"`
}

// Close marks a motivation read, optionally sending a reply back.
func (h *MotivationHandler) Close(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ok, err := h.motivationStore.Close(id, userID, req.Reply)
	if err != nil {
		h.logger.Error("close motivation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to close motivation")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found or already closed")
		return
	}

	if req.Reply != nil {
		if m, err := h.motivationStore.GetByID(id); err == nil && m != nil {
			h.hub.SendToUser(m.SenderID, websocket.NewMessage("motivation", "replied", id, nil))
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// CloseResponse dismisses a reply on the sender's side.
func (h *MotivationHandler) CloseResponse(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ok, err := h.motivationStore.CloseResponse(id, userID)
	if err != nil {
		h.logger.Error("close response", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to dismiss response")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found or already dismissed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}
