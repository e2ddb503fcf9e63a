package subscriberrepo

import (
	"context"
	"time"

	"github.com/techsum/newsletter-api/internal/domain"
)

// Subscriber is the persistence shape used by the subscriber repository.
// It mirrors domain.Subscriber field-for-field; it exists so adapters do not
// depend on domain behavior, only on the record layout.
type Subscriber struct {
	ID             domain.SubscriberID
	Email          string
	CanonicalEmail domain.CanonicalEmail
	Status         domain.Status
	Tags           []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UpsertArgs carries one insert-or-refresh write.
//
// ID and InsertTags apply only when the upsert inserts; on a refresh of an
// existing record they are ignored entirely (no partial mix of
// only-set-on-insert fields).
type UpsertArgs struct {
	ID             domain.SubscriberID
	Email          string
	CanonicalEmail domain.CanonicalEmail
	InsertTags     []string
	Now            time.Time
}

// Counts are aggregate totals over records with a canonical email.
type Counts struct {
	Total    int
	Active   int
	Inactive int
}

// Repository provides access to persisted subscribers, keyed by canonical
// email.
//
// Atomicity expectations:
//   - Upsert must be atomic per key: two concurrent upserts for one canonical
//     email must not create two records, and the final state must be one of
//     the two writes entirely.
//   - MutateTag is a read-modify-write and must serialize per key; adapters
//     must not implement it as an unguarded read-then-write.
//
// List returns records ordered by UpdatedAt descending, then CreatedAt
// descending, with canonical email ascending as a deterministic tiebreak.
// List and Counts both exclude records lacking a canonical email (guards
// against pre-migration legacy rows).
type Repository interface {
	Upsert(ctx context.Context, args UpsertArgs) (Subscriber, error)

	// SetStatus reports matched=false (and no error) when no record exists:
	// unsubscribing a never-seen address is a no-op success.
	SetStatus(ctx context.Context, canonical domain.CanonicalEmail, status domain.Status, now time.Time) (bool, error)

	// MutateTag adds tag to (add=true) or removes it from (add=false) the
	// record's tag set and returns the new set. The set never contains
	// duplicates. Returns ErrNotFound when no record exists.
	MutateTag(ctx context.Context, canonical domain.CanonicalEmail, tag string, add bool, now time.Time) ([]string, error)

	Delete(ctx context.Context, canonical domain.CanonicalEmail) (bool, error)

	Find(ctx context.Context, canonical domain.CanonicalEmail) (Subscriber, error)

	List(ctx context.Context) ([]Subscriber, error)

	Counts(ctx context.Context) (Counts, error)
}
