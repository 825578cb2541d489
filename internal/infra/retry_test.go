package infra_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"interview-assistant/internal/domain"
	"interview-assistant/internal/infra"
)

func fastRetry(attempts int) infra.RetryConfig {
	return infra.RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestWithRetry_BoundedAttempts(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(4), func() error {
		calls++
		return errors.New("down")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 4 {
		t.Errorf("calls: got %d, want 4", calls)
	}
}

func TestWithRetry_PermanentStopsImmediately(t *testing.T) {
	sentinel := errors.New("bad request")
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(5), func() error {
		calls++
		return infra.Permanent(sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := infra.WithRetry(ctx, infra.RetryConfig{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 2}, func() error {
		calls++
		return errors.New("down")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestStatusError(t *testing.T) {
	calls := 0
	_ = infra.WithRetry(context.Background(), fastRetry(3), func() error {
		calls++
		return infra.StatusError("test", http.StatusBadRequest, []byte("nope"))
	})
	if calls != 1 {
		t.Errorf("4xx should not be retried, calls: %d", calls)
	}

	calls = 0
	_ = infra.WithRetry(context.Background(), fastRetry(3), func() error {
		calls++
		return infra.StatusError("test", http.StatusBadGateway, []byte("later"))
	})
	if calls != 3 {
		t.Errorf("5xx should be retried, calls: %d", calls)
	}
}

func TestUnavailable(t *testing.T) {
	err := infra.Unavailable("whisper", errors.New("dial tcp: refused"))
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable in chain, got %v", err)
	}
	if infra.Unavailable("whisper", nil) != nil {
		t.Error("nil error should stay nil")
	}
}
