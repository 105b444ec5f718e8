package realtime

import (
	"testing"
	"time"
)

func TestHubPublishReachesSubscribers(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	_, ch1, cancel1 := hub.Subscribe(TopicContacts)
	defer cancel1()
	_, ch2, cancel2 := hub.Subscribe(TopicContacts)
	defer cancel2()

	event := Event{Collection: "contacts", Op: "update", ID: "c1"}
	hub.Publish(TopicContacts, event)

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case got := <-ch:
			if got != event {
				t.Errorf("event = %+v, want %+v", got, event)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestHubTopicsAreIsolated(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	_, contactsCh, cancel := hub.Subscribe(TopicContacts)
	defer cancel()

	hub.Publish(TopicMessagesFor("c1"), Event{Collection: "messages", Op: "insert", ID: "m1", ContactID: "c1"})

	select {
	case got := <-contactsCh:
		t.Fatalf("unexpected event on contacts topic: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCancelClosesStream(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	_, ch, cancel := hub.Subscribe(TopicMessages)
	cancel()

	if _, open := <-ch; open {
		t.Fatal("expected closed channel after cancel")
	}
	// Publishing after cancel must not panic.
	hub.Publish(TopicMessages, Event{Collection: "messages", Op: "insert", ID: "m1"})
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	_, _, cancel := hub.Subscribe(TopicMessages)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(TopicMessages, Event{Collection: "messages", Op: "insert"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
