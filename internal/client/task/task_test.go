package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatest_SingleTaskCommits(t *testing.T) {
	var l Latest
	var applied bool

	h := l.Go(context.Background(), func(ctx context.Context, commit Commit) error {
		ok := commit(func() { applied = true })
		assert.True(t, ok)
		return nil
	})

	require.NoError(t, h.Wait())
	assert.True(t, applied)
}

func TestLatest_NewerTaskSupersedesOlder(t *testing.T) {
	var l Latest
	release := make(chan struct{})
	var result atomic.Value

	older := l.Go(context.Background(), func(ctx context.Context, commit Commit) error {
		<-release // resolves only after the newer task has committed
		commit(func() { result.Store("older") })
		return nil
	})

	newer := l.Go(context.Background(), func(ctx context.Context, commit Commit) error {
		commit(func() { result.Store("newer") })
		return nil
	})
	require.NoError(t, newer.Wait())

	close(release)
	require.ErrorIs(t, older.Wait(), ErrSuperseded)
	assert.Equal(t, "newer", result.Load())
}

func TestLatest_StartingNewTaskCancelsPrevious(t *testing.T) {
	var l Latest

	older := l.Go(context.Background(), func(ctx context.Context, commit Commit) error {
		<-ctx.Done()
		return ctx.Err()
	})
	l.Go(context.Background(), func(ctx context.Context, commit Commit) error { return nil })

	select {
	case <-older.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("older task was not cancelled")
	}
	require.ErrorIs(t, older.Err(), ErrSuperseded)
}

func TestLatest_CancelledParentKeepsTaskCurrent(t *testing.T) {
	var l Latest
	var cleaned bool
	ctx, cancel := context.WithCancel(context.Background())

	h := l.Go(ctx, func(ctx context.Context, commit Commit) error {
		<-ctx.Done()
		commit(func() { cleaned = true })
		return ctx.Err()
	})
	cancel()

	require.ErrorIs(t, h.Wait(), context.Canceled)
	assert.True(t, cleaned, "a cancelled but current task may still commit its cleanup")
}

func TestLatest_StopPreventsCommit(t *testing.T) {
	var l Latest
	started := make(chan struct{})
	var committed atomic.Bool

	h := l.Go(context.Background(), func(ctx context.Context, commit Commit) error {
		close(started)
		<-ctx.Done()
		committed.Store(commit(nil))
		return errors.New("late")
	})

	<-started
	l.Stop()

	require.ErrorIs(t, h.Wait(), ErrSuperseded)
	assert.False(t, committed.Load())
}

func TestLatest_ErrorFromCommittedTaskIsKept(t *testing.T) {
	var l Latest
	boom := errors.New("boom")

	h := l.Go(context.Background(), func(ctx context.Context, commit Commit) error {
		commit(nil)
		return boom
	})

	require.ErrorIs(t, h.Wait(), boom)
}
