package ratelimit

import (
	"testing"
	"time"

	"github.com/dalemusser/quorum/internal/testutil"
	"go.uber.org/zap"
)

func TestWindowStart(t *testing.T) {
	base := time.Date(2026, 3, 14, 10, 37, 42, 0, time.UTC)

	tests := []struct {
		name   string
		now    time.Time
		window time.Duration
		want   time.Time
	}{
		{
			name:   "one minute window floors to minute",
			now:    base,
			window: time.Minute,
			want:   time.Date(2026, 3, 14, 10, 37, 0, 0, time.UTC),
		},
		{
			name:   "one hour window floors to hour",
			now:    base,
			window: time.Hour,
			want:   time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "exact boundary is its own start",
			now:    time.Date(2026, 3, 14, 10, 37, 0, 0, time.UTC),
			window: time.Minute,
			want:   time.Date(2026, 3, 14, 10, 37, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WindowStart(tt.now, tt.window); !got.Equal(tt.want) {
				t.Errorf("WindowStart = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCounterID(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 37, 0, 0, time.UTC)

	a := CounterID("invites.create", "user-1", start)
	if len(a) != 32 {
		t.Fatalf("CounterID length = %d, want 32", len(a))
	}

	// deterministic
	if b := CounterID("invites.create", "user-1", start); b != a {
		t.Error("same inputs should produce the same id")
	}

	// each component separates counters
	if CounterID("invites.lookup", "user-1", start) == a {
		t.Error("different routes should produce different ids")
	}
	if CounterID("invites.create", "user-2", start) == a {
		t.Error("different actors should produce different ids")
	}
	if CounterID("invites.create", "user-1", start.Add(time.Minute)) == a {
		t.Error("different windows should produce different ids")
	}

	// the separator prevents boundary ambiguity between route and actor
	if CounterID("ab", "c", start) == CounterID("a", "bc", start) {
		t.Error("route/actor boundary should be unambiguous")
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 37, 30, 0, time.UTC)

	tests := []struct {
		name  string
		reset time.Time
		want  int
	}{
		{"thirty seconds left", now.Add(30 * time.Second), 30},
		{"fraction rounds up", now.Add(500 * time.Millisecond), 1},
		{"just over a second rounds up", now.Add(1500 * time.Millisecond), 2},
		{"window already over", now.Add(-time.Second), 0},
		{"exactly now", now, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RetryAfterSeconds(now, tt.reset); got != tt.want {
				t.Errorf("RetryAfterSeconds = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAllow_CountsDownAndDenies(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l := New(db.Client(), db, zap.NewNop())

	const limit = 3
	for i := 0; i < limit; i++ {
		res, err := l.Allow(ctx, "test.route", "actor-1", limit, time.Minute)
		if err != nil {
			t.Fatalf("Allow %d failed: %v", i+1, err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if want := limit - (i + 1); res.Remaining != want {
			t.Errorf("request %d: remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}

	res, err := l.Allow(ctx, "test.route", "actor-1", limit, time.Minute)
	if err != nil {
		t.Fatalf("Allow over limit failed: %v", err)
	}
	if res.Allowed {
		t.Error("request over limit should be denied")
	}
	if res.Remaining != 0 {
		t.Errorf("denied remaining = %d, want 0", res.Remaining)
	}
	if res.RetryAfter <= 0 || res.RetryAfter > 60 {
		t.Errorf("RetryAfter = %d, want within (0, 60]", res.RetryAfter)
	}
}

func TestAllow_ActorsAreIndependent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l := New(db.Client(), db, zap.NewNop())

	if res, err := l.Allow(ctx, "test.route", "actor-a", 1, time.Minute); err != nil || !res.Allowed {
		t.Fatalf("actor-a first request: allowed=%v err=%v", res.Allowed, err)
	}
	if res, err := l.Allow(ctx, "test.route", "actor-a", 1, time.Minute); err != nil || res.Allowed {
		t.Fatalf("actor-a second request should be denied: allowed=%v err=%v", res.Allowed, err)
	}
	if res, err := l.Allow(ctx, "test.route", "actor-b", 1, time.Minute); err != nil || !res.Allowed {
		t.Fatalf("actor-b should have its own counter: allowed=%v err=%v", res.Allowed, err)
	}
}

func TestAllow_NewWindowResetsCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l := New(db.Client(), db, zap.NewNop())

	now := time.Date(2026, 3, 14, 10, 37, 30, 0, time.UTC)
	l.SetClock(func() time.Time { return now })

	if res, err := l.Allow(ctx, "test.route", "actor-1", 1, time.Minute); err != nil || !res.Allowed {
		t.Fatalf("first request: allowed=%v err=%v", res.Allowed, err)
	}
	if res, err := l.Allow(ctx, "test.route", "actor-1", 1, time.Minute); err != nil || res.Allowed {
		t.Fatalf("second request in window should be denied: allowed=%v err=%v", res.Allowed, err)
	}

	// step the clock into the next window
	l.SetClock(func() time.Time { return now.Add(time.Minute) })

	res, err := l.Allow(ctx, "test.route", "actor-1", 1, time.Minute)
	if err != nil {
		t.Fatalf("Allow in new window failed: %v", err)
	}
	if !res.Allowed {
		t.Error("new window should start a fresh counter")
	}
}

func TestAllow_ZeroValuesUseDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l := New(db.Client(), db, zap.NewNop())

	res, err := l.Allow(ctx, "test.route", "actor-1", 0, 0)
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if res.Limit != DefaultLimit {
		t.Errorf("limit = %d, want default %d", res.Limit, DefaultLimit)
	}
	if res.Remaining != DefaultLimit-1 {
		t.Errorf("remaining = %d, want %d", res.Remaining, DefaultLimit-1)
	}
}
