// Package mail dispatches templated notification emails.
package mail

import "context"

// Message is a fully rendered email ready for delivery.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Notifier sends a message. Implementations may deliver directly or hand the
// message to an external worker.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
