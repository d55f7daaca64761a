package workflow

import "errors"

// The error kinds callers branch on. Guard violations and transport
// failures are always surfaced; they are never coerced into a state
// change.
var (
	// ErrNotFound means the message id does not exist.
	ErrNotFound = errors.New("message not found")

	// ErrInvalidTransition means the message is not in a state the
	// requested event accepts. State and ledger are left unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNoDraft rejects a submit with neither a human nor a machine
	// reply draft.
	ErrNoDraft = errors.New("no reply draft present")

	// ErrNoPendingReview means approve/reject found no open review
	// event to resolve.
	ErrNoPendingReview = errors.New("no pending review event")

	// ErrForbidden means the actor lacks the required capability.
	ErrForbidden = errors.New("actor lacks required capability")

	// ErrEmptyReply rejects a send whose effective reply body is empty.
	ErrEmptyReply = errors.New("reply content is empty")

	// ErrSendFailed wraps a transport-level delivery failure. The
	// message stays APPROVED, so the send is retryable.
	ErrSendFailed = errors.New("transport send failed")
)
