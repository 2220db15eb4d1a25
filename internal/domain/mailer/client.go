package mailer

import "context"

// Message is one outbound email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Client abstracts the mail transport so application logic does not depend
// on SMTP details. Implementations deliver synchronously and return an
// error on failure; retry policy belongs to the caller.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
