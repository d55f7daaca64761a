// Package mailbox wraps the mail transport: IMAP for fetching inbound
// messages and SMTP for sending replies. Fetch is safe to repeat
// (callers dedup by ExternalID); Send makes exactly one delivery
// attempt per call.
package mailbox

import (
	"context"
	"time"
)

// InboundMessage is one raw message pulled from the transport, already
// reduced to the fields the pipeline stores.
type InboundMessage struct {
	// ExternalID is the transport's unique id for the message (the
	// Message-ID header when present).
	ExternalID string
	Subject    string
	Sender     string
	Recipient  string
	Date       time.Time
	TextBody   string
	HTMLBody   string
}

// Transport fetches candidate messages for ingestion.
type Transport interface {
	// FetchLatest returns up to max messages, newest first.
	FetchLatest(ctx context.Context, max int) ([]InboundMessage, error)
}

// Sender delivers one reply. Implementations make a single attempt;
// retry policy belongs to the caller.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
