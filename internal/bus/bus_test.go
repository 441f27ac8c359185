package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/copyintel/shrike/internal/domain"
)

func TestChannelBusPublishSubscribe(t *testing.T) {
	ctx := context.Background()
	b := NewChannelBus(10)
	defer b.Close()

	received := make(chan *domain.Message, 1)

	sub, err := b.Subscribe(ctx, "tenant-a", domain.TopicCopyIngested, func(ctx context.Context, msg *domain.Message) error {
		received <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	if sub.Topic() != domain.TopicCopyIngested {
		t.Errorf("expected topic %s, got %s", domain.TopicCopyIngested, sub.Topic())
	}

	if err := b.Publish(ctx, "tenant-a", domain.TopicCopyIngested, []byte(`{"batchId":"b1"}`)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-received:
		if msg.TenantID != "tenant-a" {
			t.Errorf("expected tenant-a, got %s", msg.TenantID)
		}
		if msg.Topic != domain.TopicCopyIngested {
			t.Errorf("expected topic %s, got %s", domain.TopicCopyIngested, msg.Topic)
		}
		if string(msg.Payload) != `{"batchId":"b1"}` {
			t.Errorf("unexpected payload: %s", msg.Payload)
		}
		if msg.ID == "" {
			t.Error("expected message ID to be set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestChannelBusTenantIsolation(t *testing.T) {
	ctx := context.Background()
	b := NewChannelBus(10)
	defer b.Close()

	var countA, countB atomic.Int64

	subA, err := b.Subscribe(ctx, "tenant-a", domain.TopicClassificationDone, func(ctx context.Context, msg *domain.Message) error {
		countA.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer subA.Unsubscribe()

	subB, err := b.Subscribe(ctx, "tenant-b", domain.TopicClassificationDone, func(ctx context.Context, msg *domain.Message) error {
		countB.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer subB.Unsubscribe()

	for i := 0; i < 5; i++ {
		if err := b.Publish(ctx, "tenant-a", domain.TopicClassificationDone, []byte("{}")); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	time.Sleep(100 * time.Millisecond)

	if got := countA.Load(); got != 5 {
		t.Errorf("expected tenant-a to receive 5 messages, got %d", got)
	}
	if got := countB.Load(); got != 0 {
		t.Errorf("expected tenant-b to receive 0 messages, got %d", got)
	}
}

func TestChannelBusMultipleSubscribers(t *testing.T) {
	ctx := context.Background()
	b := NewChannelBus(10)
	defer b.Close()

	var count atomic.Int64
	for i := 0; i < 3; i++ {
		sub, err := b.Subscribe(ctx, "tenant-a", domain.TopicCampaignReport, func(ctx context.Context, msg *domain.Message) error {
			count.Add(1)
			return nil
		})
		if err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
		defer sub.Unsubscribe()
	}

	if err := b.Publish(ctx, "tenant-a", domain.TopicCampaignReport, []byte("{}")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if got := count.Load(); got != 3 {
		t.Errorf("expected all 3 subscribers to receive the message, got %d", got)
	}
}

func TestChannelBusRequiresTenantID(t *testing.T) {
	ctx := context.Background()
	b := NewChannelBus(10)
	defer b.Close()

	if err := b.Publish(ctx, "", domain.TopicCopyIngested, []byte("{}")); err == nil {
		t.Error("expected error for empty tenantID on Publish")
	}
	if _, err := b.Subscribe(ctx, "", domain.TopicCopyIngested, func(ctx context.Context, msg *domain.Message) error {
		return nil
	}); err == nil {
		t.Error("expected error for empty tenantID on Subscribe")
	}
}

func TestChannelBusClose(t *testing.T) {
	ctx := context.Background()
	b := NewChannelBus(10)

	if err := b.Ping(ctx); err != nil {
		t.Fatalf("Ping failed before close: %v", err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := b.Ping(ctx); err == nil {
		t.Error("expected Ping to fail after close")
	}
	if err := b.Publish(ctx, "tenant-a", domain.TopicCopyIngested, []byte("{}")); err == nil {
		t.Error("expected Publish to fail after close")
	}
	if _, err := b.Subscribe(ctx, "tenant-a", domain.TopicCopyIngested, func(ctx context.Context, msg *domain.Message) error {
		return nil
	}); err == nil {
		t.Error("expected Subscribe to fail after close")
	}

	// Second close is a no-op.
	if err := b.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestNewFactory(t *testing.T) {
	t.Run("Channel", func(t *testing.T) {
		b, err := New(domain.EventBusConfig{Type: "channel", ChannelBufferSize: 10})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer b.Close()

		if _, ok := b.(*ChannelBus); !ok {
			t.Errorf("expected *ChannelBus, got %T", b)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		if _, err := New(domain.EventBusConfig{Type: "kafka"}); err == nil {
			t.Error("expected error for unknown bus type")
		}
	})
}
