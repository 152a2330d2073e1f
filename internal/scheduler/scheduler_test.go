package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/projectpulse/internal/rules"
)

type countingRunner struct {
	calls atomic.Int32
	fail  bool
}

func (r *countingRunner) RunAll(context.Context) rules.Result {
	n := int(r.calls.Add(1))
	res := rules.Result{Total: n, RunID: "run"}
	if r.fail {
		res.Errors = []string{"budget_warnings: boom"}
	}
	return res
}

func next(t *testing.T, s *Scheduler) CheckResultMsg {
	t.Helper()
	select {
	case msg := <-s.Results():
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a check result")
		return CheckResultMsg{}
	}
}

func TestScheduler_RunsImmediatelyAndOnTrigger(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, time.Hour)
	defer s.Stop()

	cmd := s.Start(context.Background())
	require.NotNil(t, cmd)
	assert.Nil(t, s.Start(context.Background()), "second start is a no-op")

	msg, ok := cmd().(CheckResultMsg)
	require.True(t, ok)
	assert.Equal(t, 1, msg.Result.Total)

	s.Trigger()
	assert.Equal(t, 2, next(t, s).Result.Total)

	st := s.Status()
	assert.Equal(t, 2, st.Runs)
	assert.Equal(t, StateIdle, st.State)
}

func TestScheduler_Ticks(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, 10*time.Millisecond)
	defer s.Stop()
	s.Start(context.Background())

	for i := 1; i <= 3; i++ {
		assert.Equal(t, i, next(t, s).Result.Total)
	}
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	runner := &countingRunner{fail: true}
	var hooked atomic.Int32
	s := New(runner, time.Hour, OnResult(func(CheckResultMsg) { hooked.Add(1) }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	next(t, s)
	assert.Equal(t, StateFailed, s.Status().State)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, int32(1), hooked.Load())
}

func TestScheduler_RunTwice(t *testing.T) {
	s := New(&countingRunner{}, time.Hour)
	defer s.Stop()
	s.Start(context.Background())

	assert.ErrorIs(t, s.Run(context.Background()), ErrAlreadyRunning)
}
