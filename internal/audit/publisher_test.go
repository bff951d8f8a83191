package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherDeliversToSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := NewPublisher(discardLogger())
	sink := NewInMemorySink()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = publisher.Run(ctx, sink)
	}()

	publisher.Emit(ctx, Event{
		EntityKey: "client/individual/John Doe",
		Role:      "individual",
		Action:    ActionMergeApplied,
	})
	publisher.Emit(ctx, Event{
		EntityKey: "client/director/Acme/Jane Lim",
		Role:      "director",
		Action:    ActionMergeRejected,
		Reason:    "locked_record",
	})

	require.Eventually(t, func() bool {
		return len(sink.Events()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	events := sink.Events()
	assert.Equal(t, ActionMergeApplied, events[0].Action)
	assert.Equal(t, "locked_record", events[1].Reason)
	assert.False(t, events[0].Timestamp.IsZero(), "emit stamps missing timestamps")

	cancel()
	<-done
}

func TestPublisherFailOpenWhenFull(t *testing.T) {
	// No worker is draining the inbox; filling it must not block.
	publisher := NewPublisher(discardLogger())
	for i := 0; i < defaultBuffer+10; i++ {
		publisher.Emit(context.Background(), Event{Action: ActionStatusChanged})
	}
}

func TestPublisherRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	publisher := NewPublisher(discardLogger())

	errCh := make(chan error, 1)
	go func() { errCh <- publisher.Run(ctx, NewInMemorySink()) }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
