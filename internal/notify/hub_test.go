package notify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mailroom/backend/internal/models"
	"mailroom/backend/internal/notify"
)

// mockClient is an in-memory listener for hub tests.
type mockClient struct {
	id     string
	recv   chan models.WorkflowEvent
	closed bool
}

func newMockClient(id string, buffer int) *mockClient {
	return &mockClient{id: id, recv: make(chan models.WorkflowEvent, buffer)}
}

func (c *mockClient) GetID() string                               { return c.id }
func (c *mockClient) GetSendChannel() chan<- models.WorkflowEvent { return c.recv }
func (c *mockClient) Run()                                        {}
func (c *mockClient) Close()                                      { c.closed = true }

func TestHub_RegisterUnregister(t *testing.T) {
	hub := notify.NewHub()
	go hub.Run()

	client := newMockClient("dash-1", 4)

	hub.RegisterCh <- client
	time.Sleep(100 * time.Millisecond)
	assert.Contains(t, hub.Clients, "dash-1")

	hub.UnregisterCh <- client
	time.Sleep(100 * time.Millisecond)
	assert.NotContains(t, hub.Clients, "dash-1")
	assert.True(t, client.closed)
}

func TestHub_PublishBroadcasts(t *testing.T) {
	hub := notify.NewHub()
	go hub.Run()

	clientA := newMockClient("dash-a", 4)
	clientB := newMockClient("dash-b", 4)
	hub.RegisterCh <- clientA
	hub.RegisterCh <- clientB
	time.Sleep(100 * time.Millisecond)

	evt := models.WorkflowEvent{
		Kind:      models.EventKindStatusChanged,
		MessageID: 42,
		Status:    models.StatusInReview,
		Priority:  models.PriorityHigh,
		Subject:   "Defect claim",
	}
	hub.Publish(evt)
	time.Sleep(100 * time.Millisecond)

	for _, c := range []*mockClient{clientA, clientB} {
		select {
		case got := <-c.recv:
			assert.Equal(t, uint(42), got.MessageID)
			assert.Equal(t, models.StatusInReview, got.Status)
		default:
			t.Errorf("client %s did not receive the event", c.GetID())
		}
	}
}

func TestHub_SlowConsumerDisconnected(t *testing.T) {
	hub := notify.NewHub()
	go hub.Run()

	// Zero-buffer channel with no reader: the first broadcast stalls.
	slow := newMockClient("slow", 0)
	hub.RegisterCh <- slow
	time.Sleep(100 * time.Millisecond)

	hub.Publish(models.WorkflowEvent{Kind: models.EventKindIngested, MessageID: 1})
	time.Sleep(100 * time.Millisecond)

	assert.NotContains(t, hub.Clients, "slow")
	assert.True(t, slow.closed)
}
