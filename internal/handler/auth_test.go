package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rutina-app/rutina/internal/database"
	"github.com/rutina-app/rutina/internal/middleware"
	"github.com/rutina-app/rutina/internal/store"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, *store.SessionStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// A pool would hand each connection its own empty in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := store.NewSessionStore(db)
	return NewAuthHandler(store.NewUserStore(db), sessions, false, logger), sessions
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	h, _ := setupAuthHandler(t)

	rec := postJSON(t, h.Register, `{"email": "Ana@Example.com", "name": "Ana", "password": "correcthorse"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	c := sessionCookie(t, rec)
	if c.Value == "" || !c.HttpOnly {
		t.Errorf("cookie = %+v, want non-empty HttpOnly", c)
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("response leaks password hash")
	}

	// Duplicate email, case-insensitive
	rec = postJSON(t, h.Register, `{"email": "ana@example.com", "name": "Ana Again", "password": "correcthorse"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = postJSON(t, h.Login, `{"email": "ana@example.com", "password": "correcthorse"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("login: status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = postJSON(t, h.Login, `{"email": "ana@example.com", "password": "wrongwrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = postJSON(t, h.Login, `{"email": "nobody@example.com", "password": "correcthorse"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown email: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRegisterFailsWhenSessionCannotBeCreated(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAuthHandler(store.NewUserStore(db), store.NewSessionStore(db), false, logger)

	if _, err := db.Exec(`DROP TABLE sessions`); err != nil {
		t.Fatalf("drop sessions: %v", err)
	}

	rec := postJSON(t, h.Register, `{"email": "ana@example.com", "name": "Ana", "password": "correcthorse"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			t.Error("no session cookie should be set on failure")
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _ := setupAuthHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"name": "X", "password": "correcthorse"}`},
		{"not an email", `{"email": "nope", "name": "X", "password": "correcthorse"}`},
		{"short password", `{"email": "x@example.com", "name": "X", "password": "short"}`},
		{"invalid json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Register, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	h, sessions := setupAuthHandler(t)

	rec := postJSON(t, h.Register, `{"email": "ana@example.com", "name": "Ana", "password": "correcthorse"}`)
	c := sessionCookie(t, rec)

	req := httptest.NewRequest("POST", "/logout", nil)
	req.AddCookie(c)
	out := httptest.NewRecorder()
	h.Logout(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("logout: status = %d, want %d", out.Code, http.StatusOK)
	}

	sess, err := sessions.GetByToken(c.Value)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess != nil {
		t.Error("session should be deleted after logout")
	}

	cleared := sessionCookie(t, out)
	if cleared.Value != "" || cleared.MaxAge != -1 {
		t.Errorf("logout cookie = %+v, want cleared", cleared)
	}
}
