package gtimer_test

import (
	"context"
	"testing"
	"time"

	"github.com/godyy/gtimer"
	"github.com/godyy/gtimer/wake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoopScheduler(t *testing.T) (*gtimer.Scheduler, *wake.Loop) {
	t.Helper()
	l := wake.NewLoop()
	s, err := gtimer.New(l.Bind)
	require.NoError(t, err)
	return s, l
}

func runLoop(t *testing.T, l *wake.Loop) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Run(ctx))
}

func TestLoopDrivesScheduler(t *testing.T) {
	s, l := newLoopScheduler(t)

	var order []string
	start := l.Now()
	var elapsed int64

	_, err := s.SetTimeout(func(...any) error {
		order = append(order, "timeout")
		elapsed = l.Now() - start
		return nil
	}, 30*time.Millisecond)
	require.NoError(t, err)

	_, err = s.SetImmediate(func(...any) error {
		order = append(order, "immediate")
		return nil
	})
	require.NoError(t, err)

	runLoop(t, l)
	assert.Equal(t, []string{"immediate", "timeout"}, order)
	assert.GreaterOrEqual(t, elapsed, int64(29))
	assert.Equal(t, 0, s.Stats().Refs)
}

func TestLoopInterval(t *testing.T) {
	s, l := newLoopScheduler(t)

	calls := 0
	var tm *gtimer.Timeout
	tm, err := s.SetInterval(func(...any) error {
		calls++
		if calls == 3 {
			tm.Close()
		}
		return nil
	}, 10*time.Millisecond)
	require.NoError(t, err)

	runLoop(t, l)
	assert.Equal(t, 3, calls)
	assert.False(t, tm.Active())
}

func TestLoopUnrefDoesNotKeepAlive(t *testing.T) {
	s, l := newLoopScheduler(t)

	tm, err := s.SetTimeout(func(...any) error {
		t.Fatal("unref'd timeout should not run")
		return nil
	}, time.Hour)
	require.NoError(t, err)
	tm.Unref()

	fired := false
	_, err = s.SetTimeout(func(...any) error {
		fired = true
		return nil
	}, 10*time.Millisecond)
	require.NoError(t, err)

	runLoop(t, l)
	assert.True(t, fired)
	assert.True(t, tm.Active())
}

func TestLoopPostSchedules(t *testing.T) {
	s, l := newLoopScheduler(t)

	keep, err := s.SetTimeout(func(...any) error { return nil }, time.Hour)
	require.NoError(t, err)

	fired := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = l.Post(func() {
			_, err := s.SetTimeout(func(...any) error {
				close(fired)
				s.Clear(keep)
				return nil
			}, 5*time.Millisecond)
			assert.NoError(t, err)
		})
	}()

	runLoop(t, l)
	select {
	case <-fired:
	default:
		t.Fatal("posted timeout did not fire")
	}
}
