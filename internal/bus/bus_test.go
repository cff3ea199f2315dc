package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
)

func TestChannelBusPublishSubscribe(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	received := make(chan *domain.Message, 1)
	sub, err := b.Subscribe(ctx, "tenant-a", domain.TopicEmailIngested, func(ctx context.Context, msg *domain.Message) error {
		received <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	if err := b.Publish(ctx, "tenant-a", domain.TopicEmailIngested, []byte(`{"emailId":"e-1"}`)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-received:
		if msg.TenantID != "tenant-a" {
			t.Errorf("expected tenant-a, got %s", msg.TenantID)
		}
		if msg.Topic != domain.TopicEmailIngested {
			t.Errorf("expected topic %s, got %s", domain.TopicEmailIngested, msg.Topic)
		}
		if string(msg.Payload) != `{"emailId":"e-1"}` {
			t.Errorf("unexpected payload: %s", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestChannelBusTenantIsolation(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	var count atomic.Int64
	sub, err := b.Subscribe(ctx, "tenant-a", domain.TopicAlert, func(ctx context.Context, msg *domain.Message) error {
		count.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	if err := b.Publish(ctx, "tenant-b", domain.TopicAlert, []byte("x")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if count.Load() != 0 {
		t.Errorf("tenant-a subscriber received tenant-b message")
	}
}

func TestChannelBusUnsubscribe(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx := context.Background()

	var count atomic.Int64
	sub, err := b.Subscribe(ctx, "tenant-a", domain.TopicAnalysisCompleted, func(ctx context.Context, msg *domain.Message) error {
		count.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	sub.Unsubscribe()
	time.Sleep(10 * time.Millisecond)

	if err := b.Publish(ctx, "tenant-a", domain.TopicAnalysisCompleted, []byte("x")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if count.Load() != 0 {
		t.Errorf("unsubscribed handler still received a message")
	}
}

func TestChannelBusClosed(t *testing.T) {
	b := NewChannelBus(10)
	b.Close()
	ctx := context.Background()

	if err := b.Publish(ctx, "tenant-a", domain.TopicAlert, []byte("x")); err == nil {
		t.Errorf("expected error publishing to closed bus")
	}
	if _, err := b.Subscribe(ctx, "tenant-a", domain.TopicAlert, nil); err == nil {
		t.Errorf("expected error subscribing to closed bus")
	}
	if err := b.Ping(ctx); err == nil {
		t.Errorf("expected ping failure on closed bus")
	}
}

func TestChannelBusRequestReply(t *testing.T) {
	b := NewChannelBus(10)
	defer b.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Responder echoes a reply on the reply topic embedded by the requester
	sub, err := b.Subscribe(ctx, "tenant-a", "score.request", func(ctx context.Context, msg *domain.Message) error {
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	// Without a real responder the request times out on ctx
	_, err = b.Request(ctx, "tenant-a", "score.request", []byte("x"))
	if err == nil {
		t.Errorf("expected timeout error for unanswered request")
	}
}

func TestNewFactory(t *testing.T) {
	b, err := New(domain.EventBusConfig{Type: "channel", ChannelBufferSize: 10})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer b.Close()
	if _, ok := b.(*ChannelBus); !ok {
		t.Errorf("expected ChannelBus, got %T", b)
	}

	if _, err := New(domain.EventBusConfig{Type: "kafka"}); err == nil {
		t.Errorf("expected error for unsupported bus type")
	}
}
