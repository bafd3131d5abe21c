package pubsub

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func receive(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		if !ok {
			t.Fatal("Subscription closed unexpectedly")
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
	return Event{}
}

func TestEventBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic("test", TopicConfig{BufferSize: 3, ReplayAll: true})

	for i := 1; i <= 5; i++ {
		if err := pub.Publish("test", "event", map[string]int{"num": i}); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	sub, err := pub.Subscribe(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Last 3 of 5
	for want := 3; want <= 5; want++ {
		if event := receive(t, sub); event.Version != want {
			t.Errorf("Expected version %d, got %d", want, event.Version)
		}
	}
}

func TestReplayLastOnly(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicGraph, TopicConfig{BufferSize: 1})
	_ = pub.Publish(TopicGraph, EventLoaded, map[string]int{"nodes": 3})
	_ = pub.Publish(TopicGraph, EventLoaded, map[string]int{"nodes": 4})

	sub, err := pub.Subscribe(context.Background(), TopicGraph)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	event := receive(t, sub)
	if event.Version != 2 || event.Type != EventLoaded {
		t.Errorf("Expected loaded v2, got %s v%d", event.Type, event.Version)
	}

	var data map[string]int
	if err := json.Unmarshal(event.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data["nodes"] != 4 {
		t.Errorf("Expected the latest payload, got %v", data)
	}
}

func TestLiveEvents(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	sub, err := pub.Subscribe(context.Background(), TopicGraph)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	_ = pub.Publish("other", "ignored", nil)
	_ = pub.Publish(TopicGraph, EventReloadFailed, ReloadFailure{Path: "g.json", Error: "boom"})

	event := receive(t, sub)
	if event.Topic != TopicGraph || event.Type != EventReloadFailed {
		t.Errorf("Unexpected event %+v", event)
	}

	_ = sub.Close()
	if _, ok := <-sub.Events(); ok {
		t.Error("Events should be closed after Close")
	}
	if err := sub.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
}

func TestContextCancelClosesSubscription(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, TopicGraph)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("Expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("Subscription not closed after cancel")
	}
}

func TestPublishAfterClose(t *testing.T) {
	pub := NewSSEPublisher()
	sub, _ := pub.Subscribe(context.Background(), TopicGraph)
	_ = pub.Close()

	if _, ok := <-sub.Events(); ok {
		t.Error("Expected subscription closed by publisher")
	}
	if err := pub.Publish(TopicGraph, EventLoaded, nil); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := pub.Subscribe(context.Background(), TopicGraph); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicGraph, Type: EventLoaded, Data: json.RawMessage(`{"nodes":3}`), Version: 1}
	if err := WriteSSE(&buf, event); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "data: {") || !strings.HasSuffix(out, "}\n\n") {
		t.Errorf("Unexpected SSE frame %q", out)
	}
	if !strings.Contains(out, `"type":"loaded"`) {
		t.Errorf("Expected event type in %q", out)
	}
}
