package events

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func newTestBus() *Bus {
	return NewBus(zerolog.Nop())
}

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	bus := newTestBus()
	var got []Event
	bus.Subscribe(TopicInvitationCreated, func(_ context.Context, evt Event) {
		got = append(got, evt)
	})

	bus.Publish(context.Background(), TopicInvitationCreated, map[string]string{"email": "a@b.com"})

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Topic != TopicInvitationCreated {
		t.Errorf("unexpected topic %q", got[0].Topic)
	}
	if got[0].Payload["email"] != "a@b.com" {
		t.Errorf("unexpected payload %v", got[0].Payload)
	}
	if got[0].ID == "" || got[0].OccurredAt.IsZero() {
		t.Error("expected event id and timestamp to be set")
	}
}

func TestBus_TopicIsolation(t *testing.T) {
	bus := newTestBus()
	var count int
	bus.Subscribe(TopicEmergencyAlert, func(_ context.Context, _ Event) { count++ })

	bus.Publish(context.Background(), TopicInvitationCreated, nil)

	if count != 0 {
		t.Errorf("subscriber received event from another topic")
	}
}

func TestBus_CancelRemovesSubscription(t *testing.T) {
	bus := newTestBus()
	var count int
	cancel := bus.Subscribe(TopicMemberRemoved, func(_ context.Context, _ Event) { count++ })

	bus.Publish(context.Background(), TopicMemberRemoved, nil)
	cancel()
	bus.Publish(context.Background(), TopicMemberRemoved, nil)

	if count != 1 {
		t.Errorf("expected 1 delivery, got %d", count)
	}
}

func TestBus_PanickingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := newTestBus()
	var delivered bool
	bus.Subscribe(TopicEmergencyAlert, func(_ context.Context, _ Event) {
		panic("boom")
	})
	bus.Subscribe(TopicEmergencyAlert, func(_ context.Context, _ Event) {
		delivered = true
	})

	bus.Publish(context.Background(), TopicEmergencyAlert, nil)

	if !delivered {
		t.Error("second subscriber should still receive the event")
	}
}

func TestBus_ClosedBusDropsEvents(t *testing.T) {
	bus := newTestBus()
	var count int
	bus.Subscribe(TopicInvitationAccepted, func(_ context.Context, _ Event) { count++ })

	bus.Close()
	bus.Publish(context.Background(), TopicInvitationAccepted, nil)

	if count != 0 {
		t.Errorf("expected no deliveries after close, got %d", count)
	}
}
