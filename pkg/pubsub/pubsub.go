// Package pubsub distributes pipeline progress events to in-process
// subscribers (the CLI report, watch mode, tests).
package pubsub

import (
	"context"
	"encoding/json"
)

// TopicPipeline carries per-import pipeline status events.
const TopicPipeline = "pipeline"

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "pipeline")
	Type    string          `json:"type"`    // Event type (e.g., "loading", "closures", "ready")
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

// PipelineStatus describes one import's progress through the analysis
// pipeline stages.
type PipelineStatus struct {
	Import  string `json:"import"`  // import ID
	State   string `json:"state"`   // loading, ordering, closures, contributions, redundancy, ready, empty, error
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Current step number (1-based)
	Total   int    `json:"total"`   // Total number of steps
}
