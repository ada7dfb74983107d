package main

import (
	"context"
	"errors"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
	// ResumePublish clears the pause Pub/Sub places on an ordering key after
	// a failed publish.
	ResumePublish(orderingKey string)
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type publisherFactory func(topic string) publisher

// topicPublishers hands out one long-lived publisher per topic. Pub/Sub
// publishers batch in the background, so building one per message would leak
// goroutines.
type topicPublishers struct {
	mu     sync.Mutex
	open   func(topic string) *gcppubsub.Publisher
	byName map[string]*gcppubsub.Publisher
}

func newTopicPublishers(open func(topic string) *gcppubsub.Publisher) *topicPublishers {
	return &topicPublishers{open: open, byName: map[string]*gcppubsub.Publisher{}}
}

func (t *topicPublishers) get(topic string) publisher {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.byName[topic]; ok {
		return &gcpPublisher{p}
	}
	p := t.open(topic)
	if p == nil {
		return nil
	}
	t.byName[topic] = p
	return &gcpPublisher{p}
}

// stop flushes and closes every publisher handed out.
func (t *topicPublishers) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, p := range t.byName {
		p.Stop()
		delete(t.byName, name)
	}
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if g == nil || g.p == nil {
		return nil
	}
	return gcpPublishResult{g.p.Publish(ctx, msg)}
}

func (g *gcpPublisher) ResumePublish(orderingKey string) {
	if g == nil || g.p == nil || orderingKey == "" {
		return
	}
	g.p.ResumePublish(orderingKey)
}

type gcpPublishResult struct {
	r *gcppubsub.PublishResult
}

func (r gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r.r == nil {
		return "", errors.New("publish result is nil")
	}
	return r.r.Get(ctx)
}
