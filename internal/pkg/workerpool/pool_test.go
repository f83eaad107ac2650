package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_RunsEveryTaskAndReportsErrors(t *testing.T) {
	p := New(3, 10)
	boom := errors.New("boom")

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		key := string(rune('a' + i))
		p.Submit(Task{Key: key, Run: func(context.Context) error {
			ran.Add(1)
			if key == "c" {
				return boom
			}
			return nil
		}})
	}
	p.Close()

	failed := map[string]error{}
	count := 0
	for res := range p.Run(context.Background()) {
		count++
		if res.Err != nil {
			failed[res.Key] = res.Err
		}
	}

	assert.Equal(t, 10, count)
	assert.EqualValues(t, 10, ran.Load())
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed["c"], boom)
}

func TestPool_StopsOnCancel(t *testing.T) {
	p := New(2, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		p.Submit(Task{Key: "slow", Run: func(ctx context.Context) error {
			started <- struct{}{}
			<-ctx.Done()
			return ctx.Err()
		}})
	}

	results := p.Run(ctx)
	<-started
	<-started
	cancel()

	select {
	case <-drain(results):
	case <-time.After(2 * time.Second):
		t.Fatal("results channel not closed after cancel")
	}
}

func TestPool_RateLimitSpacesStarts(t *testing.T) {
	p := New(4, 4)
	p.SetRateLimit(20)

	for i := 0; i < 4; i++ {
		p.Submit(Task{Run: func(context.Context) error { return nil }})
	}
	p.Close()

	start := time.Now()
	for range p.Run(context.Background()) {
	}
	// One burst token, then three more at 50ms intervals.
	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
}

func drain(ch <-chan Result) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	return done
}
