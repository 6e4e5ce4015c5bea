package cancel_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmount-labs/streamio/cancel"
	"github.com/altmount-labs/streamio/ioerr"
)

func TestRootHasNoDeadlineOrCancellation(t *testing.T) {
	s := cancel.Root()
	assert.False(t, s.Cancelled())
	assert.True(t, s.Deadline().IsZero())
	assert.NoError(t, s.ThrowIfReached())
}

func TestCancelIsPermanentAndPropagatesToChildren(t *testing.T) {
	parent := cancel.Root()
	child := parent.WithTimeout(time.Hour)

	parent.Cancel()

	assert.True(t, parent.Cancelled())
	assert.True(t, child.Cancelled(), "cancellation must propagate down to children")
	assert.True(t, ioerr.Is(child.ThrowIfReached(), ioerr.Interrupted))
}

func TestWithDeadlineTakesEarliestAcrossNesting(t *testing.T) {
	far := time.Now().Add(time.Hour)
	near := time.Now().Add(time.Minute)

	parent := cancel.Root().WithDeadline(far)
	child := parent.WithDeadline(near)

	assert.Equal(t, near, child.Deadline())
}

func TestWithTimeoutExpiresAndFailsThrowIfReached(t *testing.T) {
	s := cancel.Root().WithTimeout(1 * time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	err := s.ThrowIfReached()
	require.Error(t, err)
	assert.True(t, ioerr.Is(err, ioerr.Timeout))
}

func TestShieldSuppressesInheritedDeadlineButNotCancel(t *testing.T) {
	parent := cancel.Root().WithTimeout(1 * time.Millisecond)
	shielded := parent.Shield()
	time.Sleep(5 * time.Millisecond)

	assert.NoError(t, shielded.ThrowIfReached(), "a shielded scope must not inherit its parent's expired deadline")

	parent.Cancel()
	assert.True(t, shielded.Cancelled(), "manual cancellation is never suppressed by Shield")
}

func TestShieldOwnDeadlineStillApplies(t *testing.T) {
	parent := cancel.Root().WithTimeout(time.Hour)
	shielded := parent.Shield().WithTimeout(1 * time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	assert.True(t, ioerr.Is(shielded.ThrowIfReached(), ioerr.Timeout))
}

func TestRootFromContextObservesExternalCancellation(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	s := cancel.RootFromContext(ctx)

	require.NoError(t, s.ThrowIfReached())
	cancelFn()

	err := s.ThrowIfReached()
	assert.True(t, ioerr.Is(err, ioerr.Interrupted))
}

func TestContextReturnsUnderlyingContext(t *testing.T) {
	s := cancel.Root()
	assert.NotNil(t, s.Context())
}
