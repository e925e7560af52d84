package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SubmitAndDrain_DeliversResult(t *testing.T) {
	m := NewManager(2)
	defer m.Close()

	var gotResult any
	var gotErr error
	j, err := m.Submit("compute", func(ctx context.Context) (any, error) {
		return 42, nil
	}, func(result any, err error) {
		gotResult, gotErr = result, err
	})
	require.NoError(t, err)

	require.Eventually(t, m.Pending, time.Second, time.Millisecond)

	// The callback runs only during Drain, never on the worker.
	assert.Nil(t, gotResult)

	assert.Equal(t, 1, m.Drain())
	assert.Equal(t, 42, gotResult)
	assert.NoError(t, gotErr)
	assert.Equal(t, StateDone, j.State())
}

func TestManager_Drain_EmptyQueueReturnsZero(t *testing.T) {
	m := NewManager(1)
	defer m.Close()
	assert.Equal(t, 0, m.Drain())
}

func TestManager_FailedJob_DeliversError(t *testing.T) {
	m := NewManager(1)
	defer m.Close()

	boom := errors.New("decode failed")
	var gotErr error
	j, err := m.Submit("decode", func(ctx context.Context) (any, error) {
		return nil, boom
	}, func(result any, err error) {
		gotErr = err
	})
	require.NoError(t, err)

	require.Eventually(t, m.Pending, time.Second, time.Millisecond)
	m.Drain()

	assert.ErrorIs(t, gotErr, boom)
	assert.Equal(t, StateFailed, j.State())
}

func TestManager_PanickingJob_BecomesFailure(t *testing.T) {
	m := NewManager(1)
	defer m.Close()

	var gotErr error
	j, err := m.Submit("explode", func(ctx context.Context) (any, error) {
		panic("boom")
	}, func(result any, err error) {
		gotErr = err
	})
	require.NoError(t, err)

	require.Eventually(t, m.Pending, time.Second, time.Millisecond)
	m.Drain()

	require.Error(t, gotErr)
	assert.Contains(t, gotErr.Error(), "panicked")
	assert.Equal(t, StateFailed, j.State())
}

func TestManager_CancelRunningJob(t *testing.T) {
	m := NewManager(1)
	defer m.Close()

	started := make(chan struct{})
	j, err := m.Submit("long", func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}, nil)
	require.NoError(t, err)

	<-started
	j.Cancel()

	require.Eventually(t, m.Pending, time.Second, time.Millisecond)
	m.Drain()
	assert.Equal(t, StateCancelled, j.State())
}

func TestManager_CancelPendingJob_DeliversCancellationError(t *testing.T) {
	m := NewManager(1)
	defer m.Close()

	// Occupy the only worker so the second job stays pending.
	release := make(chan struct{})
	started := make(chan struct{})
	_, err := m.Submit("blocker", func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	}, nil)
	require.NoError(t, err)
	<-started

	var gotResult any
	gotErr := errors.New("callback not invoked")
	j, err := m.Submit("queued", func(ctx context.Context) (any, error) {
		return "never runs", nil
	}, func(result any, err error) {
		gotResult, gotErr = result, err
	})
	require.NoError(t, err)

	j.Cancel()
	close(release)

	drained := 0
	require.Eventually(t, func() bool {
		drained += m.Drain()
		return drained == 2
	}, time.Second, time.Millisecond)

	assert.Equal(t, StateCancelled, j.State())
	assert.Nil(t, gotResult)
	assert.ErrorIs(t, gotErr, context.Canceled)
}

func TestManager_SubmitRacingClose_DoesNotPanic(t *testing.T) {
	m := NewManager(1)

	// Park the worker and saturate the queue behind it.
	release := make(chan struct{})
	started := make(chan struct{})
	_, err := m.Submit("blocker", func(ctx context.Context) (any, error) {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil, nil
	}, nil)
	require.NoError(t, err)
	<-started

	for i := 0; i < cap(m.queue); i++ {
		_, err := m.Submit("filler", func(ctx context.Context) (any, error) {
			return nil, nil
		}, nil)
		require.NoError(t, err)
	}

	// This submit blocks on the full queue while Close runs underneath
	// it; it must return, accepted or rejected, and never crash.
	parked := make(chan struct{})
	go func() {
		defer close(parked)
		_, _ = m.Submit("racing", func(ctx context.Context) (any, error) {
			return nil, nil
		}, nil)
	}()

	m.Close()
	close(release)

	select {
	case <-parked:
	case <-time.After(5 * time.Second):
		t.Fatal("submit did not return after close")
	}

	_, err = m.Submit("late", func(ctx context.Context) (any, error) {
		return nil, nil
	}, nil)
	assert.Error(t, err)
}

func TestManager_NilCallbackIsFine(t *testing.T) {
	m := NewManager(1)
	defer m.Close()

	_, err := m.Submit("fire_and_forget", func(ctx context.Context) (any, error) {
		return "ok", nil
	}, nil)
	require.NoError(t, err)

	require.Eventually(t, m.Pending, time.Second, time.Millisecond)
	assert.Equal(t, 1, m.Drain())
}

func TestManager_SubmitAfterClose_Fails(t *testing.T) {
	m := NewManager(1)
	m.Close()

	_, err := m.Submit("late", func(ctx context.Context) (any, error) {
		return nil, nil
	}, nil)
	assert.Error(t, err)
}

func TestManager_Close_Idempotent(t *testing.T) {
	m := NewManager(1)
	m.Close()
	m.Close()
}

func TestManager_Close_CancelsRunningJobs(t *testing.T) {
	m := NewManager(1)

	started := make(chan struct{})
	_, err := m.Submit("blocked", func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}, nil)
	require.NoError(t, err)

	<-started
	// Close must unblock the worker and return.
	m.Close()
}

func TestManager_DefaultWorkerCount(t *testing.T) {
	m := NewManager(0)
	defer m.Close()
	assert.Greater(t, m.Workers(), 0)
}

func TestManager_JobMetadata(t *testing.T) {
	m := NewManager(1)
	defer m.Close()

	j, err := m.Submit("named", func(ctx context.Context) (any, error) {
		return nil, nil
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "named", j.Name())
	assert.NotEqual(t, [16]byte{}, [16]byte(j.ID()))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "cancelled", StateCancelled.String())
}
