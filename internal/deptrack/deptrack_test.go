package deptrack

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkDoneUnblocksWaitFor(t *testing.T) {
	tr := New([]string{"a", "b"})
	assert.False(t, tr.IsDone("a"))

	done := make(chan error, 1)
	go func() {
		done <- tr.WaitFor(context.Background(), "a")
	}()

	tr.MarkDone("a")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not unblock")
	}
	assert.True(t, tr.IsDone("a"))
	assert.False(t, tr.IsDone("b"))
}

func TestWaitForRespectsContextCancellation(t *testing.T) {
	tr := New([]string{"a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.WaitFor(ctx, "a")
	assert.Error(t, err)
}

func TestWaitForUnknownNameStillLatches(t *testing.T) {
	tr := New(nil)
	assert.False(t, tr.IsDone("unknown"))
	tr.MarkDone("unknown")
	assert.True(t, tr.IsDone("unknown"))
}
