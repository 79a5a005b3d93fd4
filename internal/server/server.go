package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rutina-app/rutina/internal/habit"
	"github.com/rutina-app/rutina/internal/handler"
	"github.com/rutina-app/rutina/internal/middleware"
	"github.com/rutina-app/rutina/internal/store"
	ws "github.com/rutina-app/rutina/internal/websocket"
)

type Config struct {
	SecureCookie bool
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	habitH       *handler.HabitHandler
	completionH  *handler.CompletionHandler
	friendH      *handler.FriendHandler
	todoH        *handler.TodoHandler
	workOrderH   *handler.WorkOrderHandler
	motivationH  *handler.MotivationHandler
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	habitStore := store.NewHabitStore(db)
	completionStore := store.NewCompletionStore(db)
	invitationStore := store.NewInvitationStore(db)
	friendshipStore := store.NewFriendshipStore(db)
	todoStore := store.NewTodoStore(db)
	workOrderStore := store.NewWorkOrderStore(db)
	motivationStore := store.NewMotivationStore(db)

	habitSvc := habit.NewService(habitStore, completionStore, invitationStore, friendshipStore)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, cfg.SecureCookie, logger.With("component", "auth")),
		habitH:       handler.NewHabitHandler(habitSvc, habitStore, invitationStore, friendshipStore, hub, logger.With("component", "habit")),
		completionH:  handler.NewCompletionHandler(habitSvc, completionStore, hub, logger.With("component", "completion")),
		friendH:      handler.NewFriendHandler(friendshipStore, userStore, hub, logger.With("component", "friend")),
		todoH:        handler.NewTodoHandler(todoStore, hub, logger.With("component", "todo")),
		workOrderH:   handler.NewWorkOrderHandler(workOrderStore, friendshipStore, hub, logger.With("component", "work_order")),
		motivationH:  handler.NewMotivationHandler(motivationStore, friendshipStore, hub, logger.With("component", "motivation")),
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes behind RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PUT /api/me", s.authH.UpdateMe)
	mux.HandleFunc("DELETE /api/me", s.authH.DeleteMe)

	// Habits
	mux.HandleFunc("GET /api/habits", s.habitH.List)
	mux.HandleFunc("POST /api/habits", s.habitH.Create)
	mux.HandleFunc("GET /api/habits/{id}", s.habitH.Get)
	mux.HandleFunc("PUT /api/habits/{id}", s.habitH.Update)
	mux.HandleFunc("DELETE /api/habits/{id}", s.habitH.Delete)

	// Invitations
	mux.HandleFunc("GET /api/habit-invitations", s.habitH.ListInvitations)
	mux.HandleFunc("POST /api/habits/{id}/accept", s.habitH.AcceptInvitation)
	mux.HandleFunc("POST /api/habits/{id}/refuse", s.habitH.RefuseInvitation)
	mux.HandleFunc("POST /api/habits/{id}/abandon", s.habitH.AbandonInvitation)

	// Completions
	mux.HandleFunc("GET /api/habits/{id}/completions", s.completionH.ListForHabit)
	mux.HandleFunc("PUT /api/habits/{id}/completions/{date}", s.completionH.Upsert)
	mux.HandleFunc("PUT /api/habits/{id}/completions/{date}/media", s.completionH.SetMedia)
	mux.HandleFunc("DELETE /api/habits/{id}/completions/{date}/media", s.completionH.ClearMedia)

	// Statistics
	mux.HandleFunc("GET /api/statistics", s.habitH.Statistics)

	// Friends
	mux.HandleFunc("GET /api/friends", s.friendH.List)
	mux.HandleFunc("POST /api/friends", s.friendH.Request)
	mux.HandleFunc("PUT /api/friends/{id}", s.friendH.Resolve)
	mux.HandleFunc("DELETE /api/friends/{id}", s.friendH.Delete)

	// Todos
	mux.HandleFunc("GET /api/todos", s.todoH.List)
	mux.HandleFunc("PUT /api/todos/{date}", s.todoH.Replace)
	mux.HandleFunc("POST /api/todos/{id}/toggle", s.todoH.Toggle)
	mux.HandleFunc("DELETE /api/todos/{id}", s.todoH.Delete)

	// Work orders
	mux.HandleFunc("GET /api/work-orders", s.workOrderH.List)
	mux.HandleFunc("POST /api/work-orders", s.workOrderH.Create)
	mux.HandleFunc("GET /api/work-orders/{id}", s.workOrderH.Get)
	mux.HandleFunc("PUT /api/work-orders/{id}", s.workOrderH.Update)
	mux.HandleFunc("DELETE /api/work-orders/{id}", s.workOrderH.Delete)
	mux.HandleFunc("POST /api/work-orders/{id}/entries", s.workOrderH.CreateEntry)
	mux.HandleFunc("PUT /api/work-orders/{id}/entries/{entry_id}", s.workOrderH.UpdateEntry)
	mux.HandleFunc("POST /api/work-orders/{id}/entries/{entry_id}/stop", s.workOrderH.StopEntry)
	mux.HandleFunc("DELETE /api/work-orders/{id}/entries/{entry_id}", s.workOrderH.DeleteEntry)
	mux.HandleFunc("POST /api/work-orders/{id}/shares", s.workOrderH.Share)
	mux.HandleFunc("DELETE /api/work-orders/{id}/shares", s.workOrderH.Unshare)

	// Motivations
	mux.HandleFunc("POST /api/motivations", s.motivationH.Send)
	mux.HandleFunc("GET /api/motivations", s.motivationH.Inbox)
	mux.HandleFunc("GET /api/motivations/responses", s.motivationH.Responses)
	mux.HandleFunc("POST /api/motivations/{id}/close", s.motivationH.Close)
	mux.HandleFunc("POST /api/motivations/{id}/close-response", s.motivationH.CloseResponse)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
