package subscriptions

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/techsum/newsletter-api/internal/domain"
	clockport "github.com/techsum/newsletter-api/internal/ports/out/clock"
	mailerport "github.com/techsum/newsletter-api/internal/ports/out/mailer"
	"github.com/techsum/newsletter-api/internal/ports/out/subscriberrepo"
)

// Service implements the subscriber lifecycle: subscribe, unsubscribe, tag
// mutation, and deletion. Per-identity states are {absent, active, inactive};
// subscribe and unsubscribe are idempotent, delete is the only destructive
// transition.
//
// The service never retries; every failure is returned as a typed result for
// the transport layer to translate.
type Service struct {
	repo   subscriberrepo.Repository
	clk    clockport.Clock
	mailer mailerport.Mailer

	newSubscriberID func() domain.SubscriberID
}

// NewService wires the lifecycle engine. mailer may be nil when welcome mail
// is disabled.
func NewService(repo subscriberrepo.Repository, clk clockport.Clock, m mailerport.Mailer) *Service {
	return &Service{
		repo:   repo,
		clk:    clk,
		mailer: m,
		newSubscriberID: func() domain.SubscriberID {
			return domain.SubscriberID(uuid.NewString())
		},
	}
}

// Subscribe records interest for an address. Repeat calls refresh the
// existing record (status back to active, raw email and updatedAt updated)
// without resetting tags or createdAt.
//
// Honeypot-trapped submissions report success without touching the store;
// the response must stay indistinguishable from a real subscribe so
// automated clients cannot detect the trap.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (SubscribeResult, error) {
	if in.Honeypot != "" {
		return SubscribeResult{}, nil
	}

	canonical, err := domain.NormalizeEmail(in.Email)
	if err != nil {
		return SubscribeResult{}, invalidEmailError(err)
	}

	sub, err := s.repo.Upsert(ctx, subscriberrepo.UpsertArgs{
		ID:             s.newSubscriberID(),
		Email:          in.Email,
		CanonicalEmail: canonical,
		InsertTags:     in.Tags,
		Now:            s.clk.Now(),
	})
	if err != nil {
		return SubscribeResult{}, err
	}

	// Welcome mail is best-effort and decoupled from state-change success.
	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, sub.Email); err != nil {
			log.Printf("subscriptions: welcome mail to %s failed: %v", canonical, err)
		}
	}

	return SubscribeResult{CanonicalEmail: string(sub.CanonicalEmail)}, nil
}

// Unsubscribe marks the record inactive. Unsubscribing a never-seen or
// already-deleted address is a no-op success, not an error, and never
// creates a record.
func (s *Service) Unsubscribe(ctx context.Context, rawEmail string) (UnsubscribeResult, error) {
	canonical, err := domain.NormalizeEmail(rawEmail)
	if err != nil {
		return UnsubscribeResult{}, invalidEmailError(err)
	}

	if _, err := s.repo.SetStatus(ctx, canonical, domain.StatusInactive, s.clk.Now()); err != nil {
		return UnsubscribeResult{}, err
	}
	return UnsubscribeResult{CanonicalEmail: string(canonical)}, nil
}

// SetTag adds or removes one tag on an existing subscriber.
func (s *Service) SetTag(ctx context.Context, in SetTagInput) (SetTagResult, error) {
	canonical, err := domain.NormalizeEmail(in.Email)
	if err != nil {
		return SetTagResult{}, invalidEmailError(err)
	}
	if in.Tag == "" {
		return SetTagResult{}, &Error{
			Status:  http.StatusUnprocessableEntity,
			Code:    "VALIDATION_ERROR",
			Message: "invalid tag",
			Details: map[string]any{"tag": "must be non-empty"},
		}
	}

	tags, err := s.repo.MutateTag(ctx, canonical, in.Tag, in.Add, s.clk.Now())
	if err != nil {
		if errors.Is(err, subscriberrepo.ErrNotFound) {
			return SetTagResult{}, notFoundError()
		}
		return SetTagResult{}, err
	}
	return SetTagResult{Tags: tags}, nil
}

// DeleteSubscriber removes the record entirely. Unlike unsubscribe, deleting
// an unknown address is an error.
func (s *Service) DeleteSubscriber(ctx context.Context, rawEmail string) error {
	canonical, err := domain.NormalizeEmail(rawEmail)
	if err != nil {
		return invalidEmailError(err)
	}

	deleted, err := s.repo.Delete(ctx, canonical)
	if err != nil {
		return err
	}
	if !deleted {
		return notFoundError()
	}
	return nil
}

func invalidEmailError(err error) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    "VALIDATION_ERROR",
		Message: "invalid email",
		Details: map[string]any{"email": err.Error()},
	}
}

func notFoundError() *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    "SUBSCRIBER_NOT_FOUND",
		Message: "Subscriber not found",
	}
}
