package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gamify/internal/ir"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()
	for _, typ := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(Submission{EventType: typ}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		s, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, s.EventType)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestEventQueue_Close(t *testing.T) {
	q := newEventQueue()
	require.True(t, q.Enqueue(Submission{EventType: "a"}))
	q.Close()
	q.Close()

	assert.False(t, q.Enqueue(Submission{EventType: "b"}))
	assert.False(t, q.Done(), "pending items survive close")

	_, ok := q.TryDequeue()
	require.True(t, ok)
	assert.True(t, q.Done())

	select {
	case <-q.Wait():
	default:
		t.Fatal("closed queue must not block waiters")
	}
}

func TestEngine_SubmitAndDrain(t *testing.T) {
	e, _ := newTestEngine(t, WithRules(xpRule("click", "click", 10, 0)))
	mustCreate(t, e, "u1")

	payload := ir.Payload{ir.PayloadXP: ir.Int(1)}
	require.NoError(t, e.Submit("u1", "click", payload))
	require.NoError(t, e.Submit("ghost", "click", nil))
	require.NoError(t, e.Submit("u1", "click", nil))
	payload[ir.PayloadXP] = ir.Int(1000)

	assert.Equal(t, 3, e.Pending())
	assert.Equal(t, 3, e.Drain())
	assert.Equal(t, 0, e.Pending())

	u, _ := e.GetUser("u1")
	assert.Equal(t, int64(21), u.XP, "payload copied at submit time")
}

func TestEngine_RunStopsOnCancel(t *testing.T) {
	e, _ := newTestEngine(t, WithRules(xpRule("click", "click", 10, 0)))
	mustCreate(t, e, "u1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.NoError(t, e.Submit("u1", "click", nil))
	require.Eventually(t, func() bool {
		u, _ := e.GetUser("u1")
		return u.XP == 10
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestEngine_RunDrainsAfterClose(t *testing.T) {
	e, _ := newTestEngine(t, WithRules(xpRule("click", "click", 10, 0)))
	mustCreate(t, e, "u1")

	require.NoError(t, e.Submit("u1", "click", nil))
	require.NoError(t, e.Submit("u1", "click", nil))
	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Submit("u1", "click", nil), ErrClosed)

	require.NoError(t, e.Run(context.Background()))
	u, _ := e.GetUser("u1")
	assert.Equal(t, int64(20), u.XP)
}
