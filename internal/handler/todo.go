package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rutina-app/rutina/internal/auth"
	"github.com/rutina-app/rutina/internal/model"
	"github.com/rutina-app/rutina/internal/store"
	"github.com/rutina-app/rutina/internal/todo"
	"github.com/rutina-app/rutina/internal/websocket"
)

type TodoHandler struct {
	todoStore *store.TodoStore
	hub       *websocket.Hub
	logger    *slog.Logger
	now       func() time.Time
}

func NewTodoHandler(ts *store.TodoStore, hub *websocket.Hub, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{
		todoStore: ts,
		hub:       hub,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns the day's todos (?date=) or a range (?start=&end=).
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var (
		todos []model.Todo
		err   error
	)
	if r.URL.Query().Get("date") != "" {
		var day time.Time
		day, err = parseDateQuery(r, "date")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		todos, err = h.todoStore.ListForDay(userID, day)
	} else {
		var start, end time.Time
		start, err = parseDateQuery(r, "start")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date")
			return
		}
		end, err = parseDateQuery(r, "end")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end date")
			return
		}
		todos, err = h.todoStore.ListInRange(userID, start, end)
	}
	if err != nil {
		h.logger.Error("list todos", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list todos")
		return
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	writeJSON(w, http.StatusOK, todos)
}

type todoItemRequest struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Replace swaps a day's todo list. The day must still be editable: past days
// are frozen, and the current day locks at the cutoff hour.
func (h *TodoHandler) Replace(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	day, err := parseDateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	if !todo.Editable(day, h.now()) {
		writeError(w, http.StatusConflict, "this day's list can no longer be edited")
		return
	}

	var items []todoItemRequest
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	inputs := make([]store.TodoInput, 0, len(items))
	for _, it := range items {
		it.Title = strings.TrimSpace(it.Title)
		if it.Title == "" {
			writeError(w, http.StatusBadRequest, "every todo needs a title")
			return
		}
		inputs = append(inputs, store.TodoInput{ID: it.ID, Title: it.Title, Description: it.Description})
	}

	todos, err := h.todoStore.ReplaceForDay(userID, day, inputs)
	if err != nil {
		h.logger.Error("replace todos", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save todos")
		return
	}
	if todos == nil {
		todos = []model.Todo{}
	}

	h.hub.SendToUser(userID, websocket.NewMessage("todo", "replaced", 0, map[string]any{"day": day.Format(dateLayout)}))
	writeJSON(w, http.StatusOK, todos)
}

// Toggle flips a todo's completed flag. Completion state may change at any
// time; only the list's contents are subject to the cutoff.
func (h *TodoHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ok, err := h.todoStore.ToggleComplete(id, userID)
	if err != nil {
		h.logger.Error("toggle todo", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle todo")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	t, err := h.todoStore.GetByID(id, userID)
	if err != nil {
		h.logger.Error("get todo", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load todo")
		return
	}

	h.hub.SendToUser(userID, websocket.NewMessage("todo", "toggled", id, nil))
	writeJSON(w, http.StatusOK, t)
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	t, err := h.todoStore.GetByID(id, userID)
	if err != nil {
		h.logger.Error("get todo", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load todo")
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !todo.Editable(t.Day, h.now()) {
		writeError(w, http.StatusConflict, "this day's list can no longer be edited")
		return
	}

	if err := h.todoStore.Delete(id, userID); err != nil {
		h.logger.Error("delete todo", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete todo")
		return
	}

	h.hub.SendToUser(userID, websocket.NewMessage("todo", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
