package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	memclock "github.com/techsum/newsletter-api/internal/adapters/memory/clock"
	memmailer "github.com/techsum/newsletter-api/internal/adapters/memory/mailer"
	memsessionstore "github.com/techsum/newsletter-api/internal/adapters/memory/sessionstore"
	memsubscriberrepo "github.com/techsum/newsletter-api/internal/adapters/memory/subscriberrepo"
	"github.com/techsum/newsletter-api/internal/app/reports"
	"github.com/techsum/newsletter-api/internal/app/subscriptions"
)

type testEnv struct {
	handler http.Handler
	repo    *memsubscriberrepo.Repo
	clk     *memclock.ManualClock
	mail    *memmailer.Mailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := memsubscriberrepo.NewRepo()
	clk := memclock.NewManualClock(time.Unix(1700000000, 0).UTC())
	mail := memmailer.NewMailer()

	subsSvc := subscriptions.NewService(repo, clk, mail)
	repsSvc := reports.NewService(repo)

	sessions := NewSessionManager(memsessionstore.NewStore(), clk, "admin", "hunter2", SessionConfig{TTL: time.Hour})

	h := NewRouter(NewServer(subsSvc, repsSvc), RouterOptions{Sessions: sessions})
	return &testEnv{handler: h, repo: repo, clk: clk, mail: mail}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/login", map[string]string{"username": "admin", "password": "hunter2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "techsum_admin_session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error response %q: %v", rec.Body.String(), err)
	}
	return er.Error.Code
}

func TestSubscribe(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/subscribe", map[string]any{
		"email": "User@Example.com",
		"tags":  []string{"weekly"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	m := decodeMap(t, rec)
	if m["ok"] != true || m["canonicalEmail"] != "user@example.com" {
		t.Fatalf("body=%v", m)
	}
	if sent := env.mail.Sent(); len(sent) != 1 {
		t.Fatalf("welcome mail sent=%v", sent)
	}
}

func TestSubscribe_InvalidEmail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/subscribe", map[string]any{"email": "not-an-email"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "VALIDATION_ERROR" {
		t.Fatalf("code=%q", code)
	}
}

func TestSubscribe_Honeypot(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/subscribe", map[string]any{
		"email":   "bot@example.com",
		"website": "http://spam.example",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	m := decodeMap(t, rec)
	if m["ok"] != true {
		t.Fatalf("body=%v", m)
	}
	if _, leaked := m["canonicalEmail"]; leaked {
		t.Fatalf("honeypot response leaked canonicalEmail: %v", m)
	}
}

func TestSubscribe_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/subscribe", map[string]any{
		"email":   "a@example.com",
		"surpise": true,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestUnsubscribe_NeverSeen(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/unsubscribe", map[string]any{"email": "never-seen@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/subscribe", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d, want 405", rec.Code)
	}
}

func TestStats_RequiresSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/stats", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != "UNAUTHORIZED" {
		t.Fatalf("code=%q", code)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/login", map[string]string{"username": "admin", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestAdminFlow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	// Seed: two active, one inactive.
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		rec := env.do(t, http.MethodPost, "/api/subscribe", map[string]any{"email": email})
		if rec.Code != http.StatusOK {
			t.Fatalf("subscribe %s: status=%d", email, rec.Code)
		}
		env.clk.Advance(time.Second)
	}
	if rec := env.do(t, http.MethodPost, "/api/unsubscribe", map[string]any{"email": "c@example.com"}); rec.Code != http.StatusOK {
		t.Fatalf("unsubscribe: status=%d", rec.Code)
	}

	cookie := env.login(t)

	// Auth check reflects the session.
	rec := env.do(t, http.MethodGet, "/api/auth/check", nil, cookie)
	m := decodeMap(t, rec)
	if m["authenticated"] != true || m["username"] != "admin" {
		t.Fatalf("auth check=%v", m)
	}

	// Stats.
	rec = env.do(t, http.MethodGet, "/api/stats", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status=%d body=%s", rec.Code, rec.Body.String())
	}
	var stats statsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 3 || stats.Active != 2 || stats.Inactive != 1 {
		t.Fatalf("stats=%+v", stats)
	}
	if len(stats.Recent) != 3 || stats.Recent[0].Email != "c@example.com" {
		t.Fatalf("recent=%+v", stats.Recent)
	}

	// Tag mutation via URL-encoded path param.
	rec = env.do(t, http.MethodPatch, "/api/subscribers/a%40example.com/tags", map[string]any{"tag": "vip", "add": true}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch tags status=%d body=%s", rec.Code, rec.Body.String())
	}
	var tagRes setTagResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tagRes); err != nil {
		t.Fatalf("decode tags: %v", err)
	}
	if len(tagRes.Tags) != 1 || tagRes.Tags[0] != "vip" {
		t.Fatalf("tags=%v", tagRes.Tags)
	}

	// Missing add field is rejected.
	rec = env.do(t, http.MethodPatch, "/api/subscribers/a%40example.com/tags", map[string]any{"tag": "vip"}, cookie)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("patch without add: status=%d", rec.Code)
	}

	// Delete, then delete again.
	rec = env.do(t, http.MethodDelete, "/api/subscribers/b%40example.com", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodDelete, "/api/subscribers/b%40example.com", nil, cookie)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rec.Code)
	}
	if code := errorCode(t, rec); code != "SUBSCRIBER_NOT_FOUND" {
		t.Fatalf("code=%q", code)
	}

	// Logout invalidates the session.
	if rec := env.do(t, http.MethodPost, "/api/logout", nil, cookie); rec.Code != http.StatusOK {
		t.Fatalf("logout status=%d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/stats", nil, cookie); rec.Code != http.StatusUnauthorized {
		t.Fatalf("stats after logout status=%d", rec.Code)
	}
}

func TestSessionExpiry(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	cookie := env.login(t)
	if rec := env.do(t, http.MethodGet, "/api/stats", nil, cookie); rec.Code != http.StatusOK {
		t.Fatalf("stats status=%d", rec.Code)
	}

	env.clk.Advance(2 * time.Hour)
	if rec := env.do(t, http.MethodGet, "/api/stats", nil, cookie); rec.Code != http.StatusUnauthorized {
		t.Fatalf("stats with expired session status=%d", rec.Code)
	}
}

func TestRequireAdmin_ContextCarriesUsername(t *testing.T) {
	t.Parallel()

	sessions := NewSessionManager(
		memsessionstore.NewStore(),
		memclock.NewManualClock(time.Unix(1700000000, 0).UTC()),
		"admin", "hunter2",
		SessionConfig{TTL: time.Hour},
	)

	var loginBody bytes.Buffer
	if err := json.NewEncoder(&loginBody).Encode(map[string]string{"username": "admin", "password": "hunter2"}); err != nil {
		t.Fatalf("encode login: %v", err)
	}
	loginRec := httptest.NewRecorder()
	sessions.HandleLogin(loginRec, httptest.NewRequest(http.MethodPost, "/api/login", &loginBody))
	if loginRec.Code != http.StatusOK {
		t.Fatalf("login status=%d", loginRec.Code)
	}
	var cookie *http.Cookie
	for _, c := range loginRec.Result().Cookies() {
		if c.Name == "techsum_admin_session" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no session cookie set")
	}

	var got string
	h := sessions.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = AdminFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodDelete, "/api/subscribers/x%40example.com", nil)
	req.AddCookie(cookie)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "admin" {
		t.Fatalf("AdminFromContext = %q, want %q", got, "admin")
	}
}
