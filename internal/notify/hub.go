// Package notify fans workflow events out to connected dashboard
// listeners so the mail queue view refreshes without polling.
package notify

import (
	"log"

	"mailroom/backend/internal/models"
)

// Client is the interface for any connected listener (WebSocket today).
// It abstracts the underlying connection so the hub can manage client
// types uniformly.
type Client interface {
	// GetID returns the unique identifier for this connection.
	GetID() string
	// GetSendChannel returns the channel events are delivered on.
	GetSendChannel() chan<- models.WorkflowEvent
	// Run starts the client's pumps.
	Run()
	// Close releases the client's resources.
	Close()
}

// Hub routes workflow events to every registered client.
type Hub struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	EventCh      chan models.WorkflowEvent
}

// NewHub creates an event hub. Call Run in a goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		EventCh:      make(chan models.WorkflowEvent, 64),
	}
}

// Run is the hub's dispatcher loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.RegisterCh:
			h.Clients[client.GetID()] = client
			log.Printf("INFO: Dashboard listener %s connected", client.GetID())

		case client := <-h.UnregisterCh:
			if _, ok := h.Clients[client.GetID()]; ok {
				delete(h.Clients, client.GetID())
				client.Close()
			}

		case evt := <-h.EventCh:
			h.broadcast(evt)
		}
	}
}

// Publish queues an event for broadcast. Publishing never blocks a
// workflow transition: when the hub is saturated the event is dropped.
func (h *Hub) Publish(evt models.WorkflowEvent) {
	select {
	case h.EventCh <- evt:
	default:
		log.Printf("WARNING: Event channel full, dropping %s for message #%d", evt.Kind, evt.MessageID)
	}
}

func (h *Hub) broadcast(evt models.WorkflowEvent) {
	for id, client := range h.Clients {
		select {
		case client.GetSendChannel() <- evt:
		default:
			// Slow consumer; disconnect rather than stall the hub.
			delete(h.Clients, id)
			client.Close()
		}
	}
}
