package reports

import (
	"context"
	"time"

	"github.com/techsum/newsletter-api/internal/domain"
	"github.com/techsum/newsletter-api/internal/ports/out/subscriberrepo"
)

// SubscriberView is the operator-facing projection of a subscriber: raw
// email, status, tags, timestamps. Canonical email and internal IDs stay
// private to the store.
type SubscriberView struct {
	Email     string
	Status    domain.Status
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats is the aggregate membership report.
type Stats struct {
	Total    int
	Active   int
	Inactive int

	// Recent is the full listing sorted by recency. No pagination: the
	// expected membership scale is thousands of rows, not millions.
	Recent []SubscriberView
}

// Service computes aggregate reports. It reads the store directly rather
// than going through the lifecycle engine.
type Service struct {
	repo subscriberrepo.Repository
}

func NewService(repo subscriberrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return Stats{}, err
	}

	subs, err := s.repo.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	recent := make([]SubscriberView, 0, len(subs))
	for _, sub := range subs {
		tags := sub.Tags
		if tags == nil {
			tags = []string{}
		}
		recent = append(recent, SubscriberView{
			Email:     sub.Email,
			Status:    sub.Status,
			Tags:      tags,
			CreatedAt: sub.CreatedAt,
			UpdatedAt: sub.UpdatedAt,
		})
	}

	return Stats{
		Total:    counts.Total,
		Active:   counts.Active,
		Inactive: counts.Inactive,
		Recent:   recent,
	}, nil
}
