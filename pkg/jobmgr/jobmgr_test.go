package jobmgr

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStartStop(t *testing.T) {
	m := NewManager(nil)
	started := make(chan struct{})

	require.NoError(t, m.StartAsync(context.Background(), "loop", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	}))
	<-started

	assert.Equal(t, []string{"loop"}, m.List())
	assert.Equal(t, "Running jobs: loop", m.Status())

	err := m.StartAsync(context.Background(), "loop", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrJobRunning)

	require.NoError(t, m.Stop("loop"))
	assert.Empty(t, m.List())
	assert.Equal(t, "No jobs are running.", m.Status())
	assert.ErrorIs(t, m.Stop("loop"), ErrJobNotRunning)
}

func TestReporterAndParentCancel(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
	)
	m := NewManager(func(name string, ev Event, err error) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, name+":"+ev.String())
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.StartAsync(ctx, "a", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}))
	require.NoError(t, m.StartAsync(ctx, "b", func(context.Context) error {
		return errors.New("boom")
	}))

	cancel()
	m.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a:running", "a:done", "b:running", "b:error"}, events)
}

func TestStopAll(t *testing.T) {
	m := NewManager(nil)
	for _, name := range []string{"x", "y", "z"} {
		require.NoError(t, m.StartAsync(context.Background(), name, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}))
	}
	m.StopAll()
	assert.Empty(t, m.List())
}
