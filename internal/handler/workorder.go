package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rutina-app/rutina/internal/auth"
	"github.com/rutina-app/rutina/internal/model"
	"github.com/rutina-app/rutina/internal/store"
	"github.com/rutina-app/rutina/internal/websocket"
	"github.com/rutina-app/rutina/internal/workorder"
)

type WorkOrderHandler struct {
	workOrderStore  *store.WorkOrderStore
	friendshipStore *store.FriendshipStore
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewWorkOrderHandler(ws *store.WorkOrderStore, fs *store.FriendshipStore, hub *websocket.Hub, logger *slog.Logger) *WorkOrderHandler {
	return &WorkOrderHandler{
		workOrderStore:  ws,
		friendshipStore: fs,
		hub:             hub,
		logger:          logger,
	}
}

type workOrderResponse struct {
	model.WorkOrder
	Summary workorder.Summary `json:"summary"`
}

type workOrderDetail struct {
	model.WorkOrder
	Permission string                 `json:"permission"`
	Summary    workorder.Summary      `json:"summary"`
	Entries    []model.WorkOrderEntry `json:"entries"`
	Shares     []model.WorkOrderShare `json:"shares,omitempty"`
}

func (h *WorkOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	orders, err := h.workOrderStore.ListAccessible(userID)
	if err != nil {
		h.logger.Error("list work orders", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list work orders")
		return
	}

	resp := make([]workOrderResponse, 0, len(orders))
	for _, o := range orders {
		entries, err := h.workOrderStore.ListEntries(o.ID)
		if err != nil {
			h.logger.Error("list entries", "work_order_id", o.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list work orders")
			return
		}
		resp = append(resp, workOrderResponse{WorkOrder: o, Summary: workorder.Summarize(o, entries)})
	}
	writeJSON(w, http.StatusOK, resp)
}

type workOrderRequest struct {
	Name      string  `json:"name"`
	HourPrice float64 `json:"hour_price"`
}

func (req *workOrderRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errors.New("name is required")
	}
	if req.HourPrice < 0 {
		return errors.New("hour_price must not be negative")
	}
	return nil
}

func (h *WorkOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req workOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.workOrderStore.Create(userID, req.Name, req.HourPrice)
	if err != nil {
		h.logger.Error("create work order", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create work order")
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *WorkOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, perm, ok := h.requireAccess(w, r, "view")
	if !ok {
		return
	}

	entries, err := h.workOrderStore.ListEntries(o.ID)
	if err != nil {
		h.logger.Error("list entries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load work order")
		return
	}
	if entries == nil {
		entries = []model.WorkOrderEntry{}
	}

	// Only the owner sees who the order is shared with.
	var shares []model.WorkOrderShare
	if perm == "owner" {
		shares, err = h.workOrderStore.ListShares(o.ID)
		if err != nil {
			h.logger.Error("list shares", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load work order")
			return
		}
	}

	writeJSON(w, http.StatusOK, workOrderDetail{
		WorkOrder:  *o,
		Permission: perm,
		Summary:    workorder.Summarize(*o, entries),
		Entries:    entries,
		Shares:     shares,
	})
}

func (h *WorkOrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req workOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.workOrderStore.Update(id, userID, req.Name, req.HourPrice)
	if err != nil {
		h.logger.Error("update work order", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update work order")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("work_order", "updated", id, nil))
	writeJSON(w, http.StatusOK, o)
}

func (h *WorkOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	o, err := h.workOrderStore.GetByID(id)
	if err != nil {
		h.logger.Error("get work order", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load work order")
		return
	}
	if o == nil || o.UserID != userID {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.workOrderStore.Delete(id, userID); err != nil {
		h.logger.Error("delete work order", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete work order")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("work_order", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type entryRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	StartedAt   string  `json:"started_at"`
	EndedAt     *string `json:"ended_at"`
}

func (h *WorkOrderHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	o, _, ok := h.requireAccess(w, r, "edit")
	if !ok {
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	startedAt, err := time.Parse(time.RFC3339, req.StartedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid started_at, want RFC 3339")
		return
	}
	var endedAt *time.Time
	if req.EndedAt != nil {
		t, err := time.Parse(time.RFC3339, *req.EndedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid ended_at, want RFC 3339")
			return
		}
		if t.Before(startedAt) {
			writeError(w, http.StatusBadRequest, "ended_at precedes started_at")
			return
		}
		endedAt = &t
	}

	e, err := h.workOrderStore.CreateEntry(o.ID, userID, req.Name, req.Description, startedAt, endedAt)
	if err != nil {
		h.logger.Error("create entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create entry")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("work_order_entry", "created", e.ID, map[string]any{"work_order_id": o.ID}))
	writeJSON(w, http.StatusCreated, e)
}

func (h *WorkOrderHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	o, _, ok := h.requireAccess(w, r, "edit")
	if !ok {
		return
	}
	entryID, err := parseEntryID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	existing, err := h.workOrderStore.GetEntry(entryID)
	if err != nil {
		h.logger.Error("get entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load entry")
		return
	}
	if existing == nil || existing.WorkOrderID != o.ID {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	startedAt, err := time.Parse(time.RFC3339, req.StartedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid started_at, want RFC 3339")
		return
	}
	var endedAt *time.Time
	if req.EndedAt != nil {
		t, err := time.Parse(time.RFC3339, *req.EndedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid ended_at, want RFC 3339")
			return
		}
		if t.Before(startedAt) {
			writeError(w, http.StatusBadRequest, "ended_at precedes started_at")
			return
		}
		endedAt = &t
	}

	e, err := h.workOrderStore.UpdateEntry(entryID, req.Name, req.Description, startedAt, endedAt)
	if err != nil {
		h.logger.Error("update entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update entry")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("work_order_entry", "updated", entryID, map[string]any{"work_order_id": o.ID}))
	writeJSON(w, http.StatusOK, e)
}

// StopEntry stamps a running entry's end time with the current moment.
func (h *WorkOrderHandler) StopEntry(w http.ResponseWriter, r *http.Request) {
	o, _, ok := h.requireAccess(w, r, "edit")
	if !ok {
		return
	}
	entryID, err := parseEntryID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	existing, err := h.workOrderStore.GetEntry(entryID)
	if err != nil {
		h.logger.Error("get entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load entry")
		return
	}
	if existing == nil || existing.WorkOrderID != o.ID {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	stopped, err := h.workOrderStore.StopEntry(entryID, time.Now().UTC())
	if err != nil {
		h.logger.Error("stop entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to stop entry")
		return
	}
	if !stopped {
		writeError(w, http.StatusConflict, "entry is not running")
		return
	}

	e, err := h.workOrderStore.GetEntry(entryID)
	if err != nil {
		h.logger.Error("get entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load entry")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("work_order_entry", "stopped", entryID, map[string]any{"work_order_id": o.ID}))
	writeJSON(w, http.StatusOK, e)
}

func (h *WorkOrderHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	o, _, ok := h.requireAccess(w, r, "edit")
	if !ok {
		return
	}
	entryID, err := parseEntryID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	existing, err := h.workOrderStore.GetEntry(entryID)
	if err != nil {
		h.logger.Error("get entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load entry")
		return
	}
	if existing == nil || existing.WorkOrderID != o.ID {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.workOrderStore.DeleteEntry(entryID); err != nil {
		h.logger.Error("delete entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete entry")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("work_order_entry", "deleted", entryID, map[string]any{"work_order_id": o.ID}))
	w.WriteHeader(http.StatusNoContent)
}

type shareRequest struct {
	UserID     int64  `json:"user_id"`
	Permission string `json:"permission"`
}

// Share grants a friend view or edit access. Only the owner manages shares.
func (h *WorkOrderHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	o, perm, ok := h.requireAccess(w, r, "view")
	if !ok {
		return
	}
	if perm != "owner" {
		writeError(w, http.StatusForbidden, "only the owner manages shares")
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Permission != "view" && req.Permission != "edit" {
		writeError(w, http.StatusBadRequest, "permission must be view or edit")
		return
	}
	if req.UserID == userID {
		writeError(w, http.StatusUnprocessableEntity, "cannot share with yourself")
		return
	}
	friends, err := h.friendshipStore.AreFriends(userID, req.UserID)
	if err != nil {
		h.logger.Error("check friendship", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to share")
		return
	}
	if !friends {
		writeError(w, http.StatusUnprocessableEntity, "user is not an accepted friend")
		return
	}

	if err := h.workOrderStore.Share(o.ID, req.UserID, req.Permission); err != nil {
		h.logger.Error("share work order", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to share")
		return
	}

	h.hub.SendToUser(req.UserID, websocket.NewMessage("work_order", "shared", o.ID, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "shared"})
}

func (h *WorkOrderHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	o, perm, ok := h.requireAccess(w, r, "view")
	if !ok {
		return
	}
	if perm != "owner" {
		writeError(w, http.StatusForbidden, "only the owner manages shares")
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.workOrderStore.Unshare(o.ID, req.UserID); err != nil {
		h.logger.Error("unshare work order", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to unshare")
		return
	}

	h.hub.SendToUser(req.UserID, websocket.NewMessage("work_order", "unshared", o.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// requireAccess loads the work order and checks the caller's permission.
// need is "view" or "edit"; owners pass either check.
func (h *WorkOrderHandler) requireAccess(w http.ResponseWriter, r *http.Request, need string) (*model.WorkOrder, string, bool) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, "", false
	}

	o, perm, err := h.workOrderStore.GetAccessible(id, userID)
	if err != nil {
		h.logger.Error("get work order", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load work order")
		return nil, "", false
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "not found")
		return nil, "", false
	}
	if need == "edit" && perm == "view" {
		writeError(w, http.StatusForbidden, "edit permission required")
		return nil, "", false
	}
	return o, perm, true
}

func parseEntryID(r *http.Request) (int64, error) {
	return parsePathInt(r, "entry_id")
}
