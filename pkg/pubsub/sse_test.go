package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEventBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	// Configure topic with buffer size 3, replay all
	pub.ConfigureTopic(TopicScenes, TopicConfig{
		BufferSize: 3,
		ReplayAll:  true,
	})

	// Publish 5 events
	for i := 1; i <= 5; i++ {
		err := pub.Publish(TopicScenes, SceneUpdated, SceneEvent{ID: i})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	// Subscribe and verify we get last 3 events
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicScenes)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Should receive last 3 events (3, 4, 5)
	receivedCount := 0
	for receivedCount < 3 {
		select {
		case event := <-sub.Events():
			receivedCount++
			t.Logf("Received replayed event version %d", event.Version)
			// Events should be 3, 4, 5 (last 3 of 5)
			expectedVersion := receivedCount + 2
			if event.Version != expectedVersion {
				t.Errorf("Expected version %d, got %d", expectedVersion, event.Version)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for event %d", receivedCount+1)
		}
	}

	if receivedCount != 3 {
		t.Errorf("Expected 3 replayed events, got %d", receivedCount)
	}
}

func TestReplayLastOnly(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	// Configure topic with buffer size 5, replay only last
	pub.ConfigureTopic(TopicScenes, TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	// Publish 3 events
	for i := 1; i <= 3; i++ {
		err := pub.Publish(TopicScenes, SceneUpdated, SceneEvent{ID: i})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	// Subscribe and verify we get only last event
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicScenes)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Should receive only last event (version 3)
	select {
	case event := <-sub.Events():
		if event.Version != 3 {
			t.Errorf("Expected version 3, got %d", event.Version)
		}
		t.Logf("Received last event version %d", event.Version)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}

	// Verify no more events are sent
	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected extra event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
		// Good, no extra events
	}
}

func TestNoBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	// Configure topic with no buffer
	pub.ConfigureTopic(TopicScenes, TopicConfig{
		BufferSize: 0,
		ReplayAll:  false,
	})

	// Publish events before subscribing
	for i := 1; i <= 3; i++ {
		err := pub.Publish(TopicScenes, SceneUpdated, SceneEvent{ID: i})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	// Subscribe - should not receive any replayed events
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicScenes)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Verify no events are received (because none were buffered)
	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected replayed event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
		// Good, no events replayed
		t.Log("Correctly received no events (buffer disabled)")
	}

	// Now publish a new event - subscriber should receive it
	err = pub.Publish(TopicScenes, SceneCreated, SceneEvent{ID: 4})
	if err != nil {
		t.Fatalf("Failed to publish new event: %v", err)
	}

	select {
	case event := <-sub.Events():
		if event.Version != 4 {
			t.Errorf("Expected version 4, got %d", event.Version)
		}
		t.Logf("Received new event version %d", event.Version)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for new event")
	}
}

func TestSceneEventPayload(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicScenes)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	if err := pub.Publish(TopicScenes, SceneDeleted, SceneEvent{ID: 12, Name: "lab"}); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	select {
	case event := <-sub.Events():
		if event.Type != SceneDeleted || event.Topic != TopicScenes {
			t.Errorf("Unexpected event %s/%s", event.Topic, event.Type)
		}
		var payload SceneEvent
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			t.Fatalf("Bad payload: %v", err)
		}
		if payload.ID != 12 || payload.Name != "lab" {
			t.Errorf("Payload = %+v", payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestSubscribersAreCounted(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, TopicScenes)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	if n := pub.Subscribers(TopicScenes); n != 1 {
		t.Errorf("Expected 1 subscriber, got %d", n)
	}

	sub.Close()
	if n := pub.Subscribers(TopicScenes); n != 0 {
		t.Errorf("Expected 0 subscribers after close, got %d", n)
	}
	cancel()
}

func TestPublishAfterClose(t *testing.T) {
	pub := NewSSEPublisher()
	pub.Close()

	if err := pub.Publish(TopicScenes, SceneCreated, SceneEvent{ID: 1}); err == nil {
		t.Error("Expected error publishing on a closed publisher")
	}
	if _, err := pub.Subscribe(context.Background(), TopicScenes); err == nil {
		t.Error("Expected error subscribing to a closed publisher")
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicScenes, Type: SceneCreated, Data: json.RawMessage(`{"id":3}`), Version: 7}

	if err := WriteSSE(&buf, event); err != nil {
		t.Fatalf("WriteSSE error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "id: 7\nevent: created\ndata: {") {
		t.Errorf("Unexpected framing: %q", out)
	}
	if !strings.HasSuffix(out, "}\n\n") {
		t.Errorf("Event should end with a blank line: %q", out)
	}
	if !strings.Contains(out, `"data":{"id":3}`) {
		t.Errorf("Payload missing: %q", out)
	}
}

func TestSubscribeAfterResumes(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()
	pub.ConfigureTopic(TopicScenes, TopicConfig{BufferSize: 10, ReplayAll: false})

	for i := 1; i <= 5; i++ {
		if err := pub.Publish(TopicScenes, SceneUpdated, SceneEvent{ID: i}); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := pub.SubscribeAfter(ctx, TopicScenes, 2)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// the backlog comes first, then live events
	if err := pub.Publish(TopicScenes, SceneDeleted, SceneEvent{ID: 6}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []int{3, 4, 5, 6} {
		select {
		case event := <-sub.Events():
			if event.Version != want {
				t.Errorf("Expected version %d, got %d", want, event.Version)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for version %d", want)
		}
	}

	// nothing newer than what the client saw: no replay at all
	upToDate, err := pub.SubscribeAfter(ctx, TopicScenes, 6)
	if err != nil {
		t.Fatal(err)
	}
	defer upToDate.Close()
	select {
	case event := <-upToDate.Events():
		t.Errorf("Unexpected replay of version %d", event.Version)
	case <-time.After(20 * time.Millisecond):
	}
}
