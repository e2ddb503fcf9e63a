package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/techsum/newsletter-api/internal/app/reports"
	"github.com/techsum/newsletter-api/internal/app/subscriptions"
)

// Server is the HTTP adapter over the subscription lifecycle and the
// aggregate reporter. It decodes and validates request bodies, delegates to
// the application layer, and translates typed errors to status codes.
type Server struct {
	Subscriptions *subscriptions.Service
	Reports       *reports.Service

	// DevMode exposes internal error details in 500 responses.
	DevMode bool
}

func NewServer(subs *subscriptions.Service, reps *reports.Service) *Server {
	return &Server{
		Subscriptions: subs,
		Reports:       reps,
	}
}

type subscribeRequest struct {
	Email string   `json:"email"`
	Tags  []string `json:"tags,omitempty"`
	// Website is the honeypot field on the public form.
	Website string `json:"website,omitempty"`
}

type subscribeResponse struct {
	OK             bool                `json:"ok"`
	CanonicalEmail openapi_types.Email `json:"canonicalEmail,omitempty"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.Subscriptions.Subscribe(r.Context(), subscriptions.SubscribeInput{
		Email:    req.Email,
		Tags:     req.Tags,
		Honeypot: req.Website,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subscribeResponse{
		OK:             true,
		CanonicalEmail: openapi_types.Email(res.CanonicalEmail),
	})
}

type unsubscribeRequest struct {
	Email   string `json:"email"`
	Website string `json:"website,omitempty"`
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// Same honeypot treatment as subscribe: silent success.
	if req.Website != "" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	res, err := s.Subscriptions.Unsubscribe(r.Context(), req.Email)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subscribeResponse{
		OK:             true,
		CanonicalEmail: openapi_types.Email(res.CanonicalEmail),
	})
}

type setTagRequest struct {
	Tag string `json:"tag"`
	// Pointer so a missing field is distinguishable from false.
	Add *bool `json:"add"`
}

type setTagResponse struct {
	OK   bool     `json:"ok"`
	Tags []string `json:"tags"`
}

func (s *Server) handleSetTag(w http.ResponseWriter, r *http.Request) {
	email, ok := emailFromPath(w, r)
	if !ok {
		return
	}

	var req setTagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Tag == "" || req.Add == nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "missing tag or add parameter", nil)
		return
	}

	res, err := s.Subscriptions.SetTag(r.Context(), subscriptions.SetTagInput{
		Email: email,
		Tag:   req.Tag,
		Add:   *req.Add,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if admin, ok := AdminFromContext(r.Context()); ok {
		log.Printf("httpapi: admin %s set tag %q add=%t on %s", admin, req.Tag, *req.Add, email)
	}
	writeJSON(w, http.StatusOK, setTagResponse{OK: true, Tags: res.Tags})
}

func (s *Server) handleDeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	email, ok := emailFromPath(w, r)
	if !ok {
		return
	}

	if err := s.Subscriptions.DeleteSubscriber(r.Context(), email); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if admin, ok := AdminFromContext(r.Context()); ok {
		log.Printf("httpapi: admin %s deleted subscriber %s", admin, email)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type subscriberView struct {
	// Email is the raw submitted form, not necessarily RFC-shaped, so it
	// stays a plain string rather than openapi_types.Email.
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type statsResponse struct {
	OK       bool             `json:"ok"`
	Total    int              `json:"total"`
	Active   int              `json:"active"`
	Inactive int              `json:"inactive"`
	Recent   []subscriberView `json:"recent"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Reports.Stats(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	recent := make([]subscriberView, 0, len(stats.Recent))
	for _, v := range stats.Recent {
		recent = append(recent, subscriberView{
			Email:     v.Email,
			Status:    string(v.Status),
			Tags:      v.Tags,
			CreatedAt: v.CreatedAt,
			UpdatedAt: v.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, statsResponse{
		OK:       true,
		Total:    stats.Total,
		Active:   stats.Active,
		Inactive: stats.Inactive,
		Recent:   recent,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// decodeBody decodes a JSON request body, rejecting unknown fields so typos
// fail loudly instead of defaulting silently. Writes the error response and
// returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request body", map[string]any{"body": err.Error()})
		return false
	}
	return true
}

func emailFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "email")
	email, err := url.PathUnescape(raw)
	if err != nil || email == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid email path parameter", nil)
		return "", false
	}
	return email, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
