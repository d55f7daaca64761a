package notify

import "mailroom/backend/internal/models"

// Publisher is anything that can consume a workflow event.
type Publisher interface {
	Publish(evt models.WorkflowEvent)
}

// Fanout forwards each event to every attached publisher.
type Fanout []Publisher

func (f Fanout) Publish(evt models.WorkflowEvent) {
	for _, p := range f {
		p.Publish(evt)
	}
}
