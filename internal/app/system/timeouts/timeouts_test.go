package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDefaults(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	if got := Ping(); got != DefaultPing {
		t.Errorf("Ping() = %v, want %v", got, DefaultPing)
	}
	if got := Short(); got != DefaultShort {
		t.Errorf("Short() = %v, want %v", got, DefaultShort)
	}
	if got := Medium(); got != DefaultMedium {
		t.Errorf("Medium() = %v, want %v", got, DefaultMedium)
	}
	if got := Long(); got != DefaultLong {
		t.Errorf("Long() = %v, want %v", got, DefaultLong)
	}
	if got := Batch(); got != DefaultBatch {
		t.Errorf("Batch() = %v, want %v", got, DefaultBatch)
	}
}

func TestConfigure_ZeroValuesKeepDefaults(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	Configure(Config{Short: 9 * time.Second})

	if got := Short(); got != 9*time.Second {
		t.Errorf("Short() = %v, want the override", got)
	}
	if got := Medium(); got != DefaultMedium {
		t.Errorf("Medium() = %v, want the default kept", got)
	}

	cur := Current()
	if cur.Short != 9*time.Second || cur.Long != DefaultLong {
		t.Errorf("Current() = %+v", cur)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	t.Setenv("TIMEOUT_SHORT", "7s")
	t.Setenv("TIMEOUT_BATCH", "2m")
	t.Setenv("TIMEOUT_MEDIUM", "not-a-duration")

	if n := ConfigureFromEnv(); n != 2 {
		t.Errorf("ConfigureFromEnv() = %d, want 2", n)
	}
	if got := Short(); got != 7*time.Second {
		t.Errorf("Short() = %v, want 7s", got)
	}
	if got := Batch(); got != 2*time.Minute {
		t.Errorf("Batch() = %v, want 2m", got)
	}
	if got := Medium(); got != DefaultMedium {
		t.Errorf("Medium() = %v, want the default after an invalid value", got)
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 50*time.Millisecond, zap.NewNop(), "test op")

	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("context should carry a deadline")
	}

	<-ctx.Done()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want DeadlineExceeded", ctx.Err())
	}
	// The wrapped cancel must be safe after expiry.
	cancel()
}
