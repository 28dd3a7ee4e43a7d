package pubsub

import (
	"context"
	"encoding/json"
)

// TopicScenes carries changes to the scene store
const TopicScenes = "scenes"

// Scene event types
const (
	SceneCreated = "created"
	SceneUpdated = "updated"
	SceneDeleted = "deleted"
	// SceneChanged is published when a scene file is edited outside the API
	SceneChanged = "changed"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic, e.g. "scenes"
	Type    string          `json:"type"`    // Event type, e.g. "created"
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// SceneEvent is the payload of events on TopicScenes
type SceneEvent struct {
	ID      int    `json:"id"`
	Name    string `json:"name,omitempty"`
	Devices int    `json:"devices"`
	Cords   int    `json:"cords"`
}
