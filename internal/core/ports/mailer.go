package ports

import "context"

// Mailer delivers transactional email. Implementations post to the external
// mail microservice; tests stub it.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
