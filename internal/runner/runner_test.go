package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoInline(t *testing.T) {
	r := New("main", 1)
	ran := false
	err := r.Do(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, r.Running())
}

func TestDoReturnsCommandError(t *testing.T) {
	r := New("main", 1)
	boom := errors.New("boom")
	err := r.Do(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestDoRecoversPanic(t *testing.T) {
	r := New("main", 1)
	err := r.Do(context.Background(), func(context.Context) error { panic("bad") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), `panic in runner "main": bad`)
}

func TestNestedDoRunsInline(t *testing.T) {
	r := New("main", 1)
	g := NewGroup(context.Background())
	g.Go(r)
	require.Eventually(t, r.Running, time.Second, time.Millisecond)

	var order []string
	err := r.Do(context.Background(), func(ctx context.Context) error {
		order = append(order, "outer")
		return r.Do(ctx, func(context.Context) error {
			order = append(order, "inner")
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
	require.NoError(t, g.Stop())
}

func TestWorkerSerialisesCommands(t *testing.T) {
	r := New("main", 4)
	g := NewGroup(context.Background())
	g.Go(r)
	require.Eventually(t, r.Running, time.Second, time.Millisecond)

	counter := 0
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Do(context.Background(), func(context.Context) error {
				counter++
				return nil
			}))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)

	require.NoError(t, g.Stop())
	assert.False(t, r.Running())

	// A stopped runner falls back to inline execution.
	require.NoError(t, r.Do(context.Background(), func(context.Context) error {
		counter++
		return nil
	}))
	assert.Equal(t, 51, counter)
}

func TestRunOnce(t *testing.T) {
	r := New("main", 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx))
	assert.ErrorContains(t, r.Run(context.Background()), "already started")
}

func TestDoHonoursCallerContext(t *testing.T) {
	r := New("main", 1)
	g := NewGroup(context.Background())
	g.Go(r)
	require.Eventually(t, r.Running, time.Second, time.Millisecond)

	release := make(chan struct{})
	busy := make(chan struct{})
	go func() {
		_ = r.Do(context.Background(), func(context.Context) error {
			close(busy)
			<-release
			return nil
		})
	}()
	<-busy

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, g.Stop())
}

func TestGroupStopsOnParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := NewGroup(ctx)
	a, b := New("a", 1), New("b", 1)
	g.Go(a)
	g.Go(b)
	require.Eventually(t, func() bool { return a.Running() && b.Running() }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, g.Wait())
	assert.False(t, a.Running())
	assert.False(t, b.Running())
}
