package ports

import "context"

// Message is an outbound HTML email to a single recipient.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Mailer delivers messages. A non-nil error means the message was not delivered; callers
// treat it as a soft failure.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
