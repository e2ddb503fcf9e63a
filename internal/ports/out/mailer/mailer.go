package mailer

import "context"

// Mailer sends transactional mail to subscribers.
//
// Delivery is best-effort: callers must treat a send failure as advisory and
// never roll back or fail the state change that triggered it.
type Mailer interface {
	// SendWelcome sends the welcome notification after a successful
	// subscribe. email is the raw display form of the address.
	SendWelcome(ctx context.Context, email string) error
}
