package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps id and timestamp", func(t *testing.T) {
		p := NewMemoryPublisher()
		require.NoError(t, p.Emit(ctx, Event{ClientID: "client-1", Decision: "PERMIT"}))

		events := p.Events()
		require.Len(t, events, 1)
		assert.NotEmpty(t, events[0].ID)
		assert.False(t, events[0].Timestamp.IsZero())
		assert.Equal(t, "client-1", events[0].ClientID)
	})

	t.Run("keeps caller-provided stamps", func(t *testing.T) {
		p := NewMemoryPublisher()
		ts := time.Unix(1700000000, 0)
		require.NoError(t, p.Emit(ctx, Event{ID: "evt-1", Timestamp: ts}))

		events := p.Events()
		require.Len(t, events, 1)
		assert.Equal(t, "evt-1", events[0].ID)
		assert.Equal(t, ts, events[0].Timestamp)
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		p := NewMemoryPublisher()
		require.NoError(t, p.Emit(ctx, Event{ClientID: "a"}))

		snapshot := p.Events()
		snapshot[0].ClientID = "mutated"
		assert.Equal(t, "a", p.Events()[0].ClientID)
	})
}

func TestWorker(t *testing.T) {
	p := NewMemoryPublisher()
	inbox := make(chan Event, 2)
	worker := NewWorker(p, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- worker.Run(ctx)
	}()

	inbox <- Event{ClientID: "client-1", Decision: "PERMIT"}
	inbox <- Event{ClientID: "client-1", Decision: "FORBID"}

	require.Eventually(t, func() bool {
		return len(p.Events()) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	events := p.Events()
	assert.Equal(t, "PERMIT", events[0].Decision)
	assert.Equal(t, "FORBID", events[1].Decision)
}
