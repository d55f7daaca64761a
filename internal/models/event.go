package models

// Event kinds pushed to dashboard listeners.
const (
	EventKindIngested      = "ingested"
	EventKindStatusChanged = "status_changed"
)

// WorkflowEvent is broadcast whenever a message is ingested or changes
// lifecycle state, so dashboards can refresh without polling.
type WorkflowEvent struct {
	Kind      string   `json:"kind"`
	MessageID uint     `json:"message_id"`
	Status    Status   `json:"status"`
	Priority  Priority `json:"priority"`
	Subject   string   `json:"subject"`
}
