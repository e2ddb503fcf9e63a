package httpapi

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	clockport "github.com/techsum/newsletter-api/internal/ports/out/clock"
	"github.com/techsum/newsletter-api/internal/ports/out/sessionstore"
)

const sessionCookieName = "techsum_admin_session"

// SessionManager implements cookie-session admin authentication: login with
// configured credentials, random session IDs with a TTL, and a middleware
// gating the operator endpoints.
type SessionManager struct {
	store sessionstore.Store
	clk   clockport.Clock

	username string
	password string

	cfg SessionConfig
}

// SessionConfig tunes cookie behavior.
type SessionConfig struct {
	TTL           time.Duration
	SecureCookies bool
}

func NewSessionManager(store sessionstore.Store, clk clockport.Clock, username, password string, cfg SessionConfig) *SessionManager {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &SessionManager{
		store:    store,
		clk:      clk,
		username: username,
		password: password,
		cfg:      cfg,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (m *SessionManager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}

	// Constant-time comparison; both checks always run.
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(m.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(m.password)) == 1
	if !userOK || !passOK {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password", nil)
		return
	}

	id, err := newSessionID()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil)
		return
	}
	now := m.clk.Now()
	rec := sessionstore.Record{
		Username:  req.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.TTL),
	}
	if err := m.store.Put(r.Context(), id, rec); err != nil {
		writeError(w, r, http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    string(id),
		Path:     "/",
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (m *SessionManager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		_ = m.store.Delete(r.Context(), sessionstore.ID(c.Value))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// HandleCheck reports authentication state for the admin pages.
func (m *SessionManager) HandleCheck(w http.ResponseWriter, r *http.Request) {
	rec, ok := m.authenticate(r)
	resp := map[string]any{"ok": true, "authenticated": ok}
	if ok {
		resp["username"] = rec.Username
	} else {
		resp["username"] = nil
	}
	writeJSON(w, http.StatusOK, resp)
}

// RequireAdmin gates operator endpoints behind a valid session.
func (m *SessionManager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, ok := m.authenticate(r)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), rec.Username)))
	})
}

// IsAuthenticated reports whether the request carries a live session.
// The static admin page gate uses it.
func (m *SessionManager) IsAuthenticated(r *http.Request) bool {
	_, ok := m.authenticate(r)
	return ok
}

func (m *SessionManager) authenticate(r *http.Request) (sessionstore.Record, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return sessionstore.Record{}, false
	}
	id := sessionstore.ID(c.Value)
	rec, ok, err := m.store.Get(r.Context(), id)
	if err != nil || !ok {
		return sessionstore.Record{}, false
	}
	if !m.clk.Now().Before(rec.ExpiresAt) {
		_ = m.store.Delete(r.Context(), id)
		return sessionstore.Record{}, false
	}
	return rec, true
}

func newSessionID() (sessionstore.ID, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return sessionstore.ID(base64.URLEncoding.EncodeToString(b)), nil
}
