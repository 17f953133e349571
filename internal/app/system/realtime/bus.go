package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Event types pushed to clients.
const (
	TaskCreated  = "task_created"
	IssueCreated = "issue_created"
)

// Event is the JSON message clients receive.
type Event struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"projectId"`
	Payload   any       `json:"payload"`
	SentAt    time.Time `json:"sentAt"`
}

// Publisher is what handlers depend on.
type Publisher interface {
	Publish(ctx context.Context, projectID primitive.ObjectID, eventType string, payload any)
}

const subjectPrefix = "projecthub.projects."

// Bus publishes events to the Hub, via NATS when connected.
type Bus struct {
	hub *Hub
	nc  *nats.Conn
	sub *nats.Subscription
	log *zap.Logger
}

// NewBus returns a Bus that delivers straight to hub.
func NewBus(hub *Hub, log *zap.Logger) *Bus {
	return &Bus{hub: hub, log: log}
}

// ConnectNATS routes publishes through the NATS server at url and relays
// every project subject back into the local hub.
func (b *Bus) ConnectNATS(url, name string) error {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
	)
	if err != nil {
		return err
	}
	sub, err := nc.Subscribe(subjectPrefix+"*", func(m *nats.Msg) {
		b.hub.Broadcast(strings.TrimPrefix(m.Subject, subjectPrefix), m.Data)
	})
	if err != nil {
		nc.Close()
		return err
	}
	b.nc, b.sub = nc, sub
	return nil
}

// Transport names how events travel: "local", "nats", or
// "nats-disconnected" while the client is reconnecting.
func (b *Bus) Transport() string {
	if b.nc == nil {
		return "local"
	}
	if !b.nc.IsConnected() {
		return "nats-disconnected"
	}
	return "nats"
}

// Hub returns the local hub websocket handlers subscribe to.
func (b *Bus) Hub() *Hub { return b.hub }

// Publish encodes the event and sends it. Errors are logged, never returned.
func (b *Bus) Publish(ctx context.Context, projectID primitive.ObjectID, eventType string, payload any) {
	room := projectID.Hex()
	data, err := json.Marshal(Event{
		Type:      eventType,
		ProjectID: room,
		Payload:   payload,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		b.log.Error("realtime encode failed", zap.Error(err), zap.String("type", eventType))
		return
	}

	if b.nc != nil {
		if err := b.nc.Publish(subjectPrefix+room, data); err != nil {
			b.log.Warn("realtime nats publish failed", zap.Error(err), zap.String("project_id", room))
		}
		return
	}
	b.hub.Broadcast(room, data)
}

// Close drains the NATS connection if one is open.
func (b *Bus) Close() error {
	if b.nc == nil {
		return nil
	}
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	return b.nc.Drain()
}
