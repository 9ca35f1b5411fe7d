package mail

import "context"

// Message is a provider-neutral outbound email.
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Transport hands a message to a delivery provider.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}
