package pubsub

import (
	"context"

	"github.com/goccy/go-json"
)

// Topics published by the server
const (
	// TopicGraph carries graph load and reload notifications
	TopicGraph = "graph"
)

// Event types on TopicGraph
const (
	EventLoaded       = "loaded"
	EventReloadFailed = "reload_failed"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // e.g. "loaded", "reload_failed"
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic, increasing
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	Topic() string

	// Events is closed when the subscription or the publisher closes
	Events() <-chan Event

	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	Publish(topic string, eventType string, data any) error

	Close() error
}

// ReloadFailure is the payload of a reload_failed event
type ReloadFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}
