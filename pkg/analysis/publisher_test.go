package analysis

import (
	"context"
	"sync"

	"github.com/depscope/depscope/pkg/pubsub"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	topic     string
	eventType string
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{}
}

func (p *recordingPublisher) Subscribe(ctx context.Context, topic string) (pubsub.Subscription, error) {
	return nil, nil
}

func (p *recordingPublisher) Publish(topic string, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{topic: topic, eventType: eventType})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.eventType
	}
	return out
}
