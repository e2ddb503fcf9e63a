package domain

import "time"

// Status is the membership state of a subscriber. An inactive subscriber
// remains queryable and re-activatable; only an explicit delete removes the
// record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Subscriber is the domain representation of one mailing-list member.
// There is exactly one Subscriber per CanonicalEmail value.
type Subscriber struct {
	ID SubscriberID

	// Email is the most recently submitted display form of the address.
	Email          string
	CanonicalEmail CanonicalEmail

	Status Status

	// Tags never contains duplicates; order carries no meaning.
	Tags []string

	// CreatedAt is set once at first insert and never mutated.
	CreatedAt time.Time
	UpdatedAt time.Time
}
