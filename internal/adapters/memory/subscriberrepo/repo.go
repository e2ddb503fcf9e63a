package subscriberrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/techsum/newsletter-api/internal/domain"
	"github.com/techsum/newsletter-api/internal/ports/out/subscriberrepo"
)

// Repo is an in-memory implementation of subscriberrepo.Repository.
// It is safe for concurrent use: every operation runs whole under one lock,
// which is the serialization point the read-modify-write operations need.
type Repo struct {
	mu          sync.RWMutex
	byCanonical map[domain.CanonicalEmail]subscriberrepo.Subscriber
}

func NewRepo() *Repo {
	return &Repo{
		byCanonical: make(map[domain.CanonicalEmail]subscriberrepo.Subscriber),
	}
}

func (r *Repo) Upsert(ctx context.Context, args subscriberrepo.UpsertArgs) (subscriberrepo.Subscriber, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byCanonical[args.CanonicalEmail]; ok {
		existing.Email = args.Email
		existing.Status = domain.StatusActive
		existing.UpdatedAt = args.Now
		r.byCanonical[args.CanonicalEmail] = existing
		return cloneSubscriber(existing), nil
	}

	s := subscriberrepo.Subscriber{
		ID:             args.ID,
		Email:          args.Email,
		CanonicalEmail: args.CanonicalEmail,
		Status:         domain.StatusActive,
		Tags:           dedupeTags(args.InsertTags),
		CreatedAt:      args.Now,
		UpdatedAt:      args.Now,
	}
	r.byCanonical[args.CanonicalEmail] = s
	return cloneSubscriber(s), nil
}

func (r *Repo) SetStatus(ctx context.Context, canonical domain.CanonicalEmail, status domain.Status, now time.Time) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byCanonical[canonical]
	if !ok {
		return false, nil
	}
	s.Status = status
	s.UpdatedAt = now
	r.byCanonical[canonical] = s
	return true, nil
}

func (r *Repo) MutateTag(ctx context.Context, canonical domain.CanonicalEmail, tag string, add bool, now time.Time) ([]string, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byCanonical[canonical]
	if !ok {
		return nil, subscriberrepo.ErrNotFound
	}

	if add {
		if !containsTag(s.Tags, tag) {
			s.Tags = append(cloneTags(s.Tags), tag)
		}
	} else {
		out := make([]string, 0, len(s.Tags))
		for _, t := range s.Tags {
			if t != tag {
				out = append(out, t)
			}
		}
		s.Tags = out
	}
	s.UpdatedAt = now
	r.byCanonical[canonical] = s
	return cloneTags(s.Tags), nil
}

func (r *Repo) Delete(ctx context.Context, canonical domain.CanonicalEmail) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCanonical[canonical]; !ok {
		return false, nil
	}
	delete(r.byCanonical, canonical)
	return true, nil
}

func (r *Repo) Find(ctx context.Context, canonical domain.CanonicalEmail) (subscriberrepo.Subscriber, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byCanonical[canonical]
	if !ok {
		return subscriberrepo.Subscriber{}, subscriberrepo.ErrNotFound
	}
	return cloneSubscriber(s), nil
}

func (r *Repo) List(ctx context.Context) ([]subscriberrepo.Subscriber, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]subscriberrepo.Subscriber, 0, len(r.byCanonical))
	for _, s := range r.byCanonical {
		if s.CanonicalEmail == "" {
			continue
		}
		out = append(out, cloneSubscriber(s))
	}
	sortSubscribersByRecency(out)
	return out, nil
}

func (r *Repo) Counts(ctx context.Context) (subscriberrepo.Counts, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var c subscriberrepo.Counts
	for _, s := range r.byCanonical {
		if s.CanonicalEmail == "" {
			continue
		}
		c.Total++
		switch s.Status {
		case domain.StatusActive:
			c.Active++
		case domain.StatusInactive:
			c.Inactive++
		}
	}
	return c, nil
}

func cloneSubscriber(s subscriberrepo.Subscriber) subscriberrepo.Subscriber {
	out := s
	out.Tags = cloneTags(s.Tags)
	return out
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

func dedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !containsTag(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func sortSubscribersByRecency(ss []subscriberrepo.Subscriber) {
	sort.Slice(ss, func(i, j int) bool {
		if !ss[i].UpdatedAt.Equal(ss[j].UpdatedAt) {
			return ss[i].UpdatedAt.After(ss[j].UpdatedAt)
		}
		if !ss[i].CreatedAt.Equal(ss[j].CreatedAt) {
			return ss[i].CreatedAt.After(ss[j].CreatedAt)
		}
		return ss[i].CanonicalEmail < ss[j].CanonicalEmail
	})
}
