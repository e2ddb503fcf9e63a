package subscriptions

// SubscribeInput is one subscribe submission.
//
// Honeypot carries the hidden form field ("website" on the public form).
// Humans leave it empty; automated submitters tend to fill it.
type SubscribeInput struct {
	Email    string
	Tags     []string
	Honeypot string
}

// SubscribeResult reports a successful subscribe. CanonicalEmail is empty
// for honeypot-trapped submissions, which are reported as success without
// touching the store.
type SubscribeResult struct {
	CanonicalEmail string
}

// UnsubscribeResult reports a successful unsubscribe, whether or not a
// record matched.
type UnsubscribeResult struct {
	CanonicalEmail string
}

// SetTagInput mutates one tag on an existing subscriber.
type SetTagInput struct {
	Email string
	Tag   string
	Add   bool
}

// SetTagResult carries the subscriber's tag set after the mutation.
type SetTagResult struct {
	Tags []string
}
