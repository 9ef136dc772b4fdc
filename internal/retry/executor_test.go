package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeeAllocator/internal/model"
)

func fastExecutor(attempts int) *Executor {
	return New(Policy{Attempts: attempts, BaseDelay: time.Millisecond, CallTimeout: time.Second})
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), fastExecutor(4), "op", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("dial tcp: connection refused")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
}

func TestDo_TerminalErrorNotRetried(t *testing.T) {
	calls := 0
	rejected := errors.New("insufficient funds")
	_, err := Do(context.Background(), fastExecutor(4), "swap", func(context.Context) (int, error) {
		calls++
		return 0, rejected
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, 1, calls)
	assert.Equal(t, model.KindTerminal, KindOf(err))
}

func TestDo_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastExecutor(4), "claim", func(context.Context) (int, error) {
		calls++
		return 0, MarkTransient(fmt.Errorf("upstream status 503 #%d", calls))
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Contains(t, err.Error(), "#4")
	assert.Equal(t, model.KindTransient, KindOf(err))
}

func TestDo_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := New(Policy{Attempts: 10, BaseDelay: time.Hour, CallTimeout: time.Second})
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, e, "op", func(context.Context) (int, error) {
			calls++
			return 0, errors.New("i/o timeout")
		})
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("executor did not stop after cancellation")
	}
}

func TestDo_PerCallTimeoutIsTransient(t *testing.T) {
	e := New(Policy{Attempts: 2, BaseDelay: time.Millisecond, CallTimeout: 5 * time.Millisecond})
	calls := 0
	_, err := Do(context.Background(), e, "slow", func(ctx context.Context) (int, error) {
		calls++
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun(t *testing.T) {
	assert.NoError(t, Run(context.Background(), fastExecutor(1), "noop", func(context.Context) error { return nil }))
}

func TestDelay_Exponential(t *testing.T) {
	e := New(Policy{})
	assert.Equal(t, 4, e.Policy().Attempts)
	assert.Equal(t, 2*time.Second, e.Delay(0))
	assert.Equal(t, 4*time.Second, e.Delay(1))
	assert.Equal(t, 8*time.Second, e.Delay(2))
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"marked", MarkTransient(errors.New("boom")), true},
		{"dns", &net.DNSError{Err: "no such host", Name: "rpc.example"}, true},
		{"refused", fmt.Errorf("post: %w", syscall.ECONNREFUSED), true},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("unreachable")}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"network marker", errors.New("Network request failed"), true},
		{"enotfound marker", errors.New("getaddrinfo ENOTFOUND api"), true},
		{"rejected", errors.New("slippage exceeded"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, IsTransient(c.err))
		})
	}
}
