package domain

// CanonicalEmail is the lower-cased, trimmed form of an email address.
// It is the uniqueness key for subscriber records; construct it via
// NormalizeEmail so every write and query derives the key identically.
type CanonicalEmail string

// SubscriberID is an internal identifier for a subscriber record.
type SubscriberID string
