package rank

import (
	"math"
	"testing"
	"time"
)

func TestScore_KnownFixture(t *testing.T) {
	// 10-day-old listing with 5 upvotes, 100 views and 20 clicks in the
	// rolling window: engagement 250, denominator 12^1.5 ≈ 41.57,
	// ratio ≈ 6.01, score ≈ 9.18.
	got := Score(5, 100, 20, 10)
	if math.Abs(got-9.18) > 0.01 {
		t.Fatalf("Score(5,100,20,10) = %.4f, want ≈ 9.18", got)
	}
}

func TestScore_PureAndBounded(t *testing.T) {
	cases := []struct {
		up, v7, c7 int64
		age        float64
	}{
		{0, 0, 0, 0},
		{0, 0, 0, 10000},
		{1, 0, 0, 0},
		{1000000, 1000000, 1000000, 1},
		{3, 50, 7, 365},
	}
	for _, c := range cases {
		a := Score(c.up, c.v7, c.c7, c.age)
		b := Score(c.up, c.v7, c.c7, c.age)
		if a != b {
			t.Fatalf("Score not deterministic for %+v: %v vs %v", c, a, b)
		}
		if math.IsNaN(a) || math.IsInf(a, 0) {
			t.Fatalf("Score not finite for %+v: %v", c, a)
		}
		if a <= 0 || a >= 10 {
			t.Fatalf("Score out of (0,10) for %+v: %v", c, a)
		}
	}
}

func TestScore_ZeroEngagementHasFloor(t *testing.T) {
	// ratio 0 regardless of age: 10/(1+exp(2.4)) ≈ 0.83
	for _, age := range []float64{0, 1, 30, 5000} {
		got := Score(0, 0, 0, age)
		if math.Abs(got-0.8317) > 0.01 {
			t.Fatalf("zero-engagement score at age %v = %.4f, want ≈ 0.83", age, got)
		}
	}
}

func TestScore_RecencyBias(t *testing.T) {
	// Identical engagement, different ages: the newer listing scores
	// strictly higher.
	newer := Score(5, 100, 20, 2)
	older := Score(5, 100, 20, 30)
	if newer <= older {
		t.Fatalf("expected newer > older, got newer=%v older=%v", newer, older)
	}
}

func TestScore_NegativeAgeClamped(t *testing.T) {
	if got, want := Score(5, 100, 20, -3), Score(5, 100, 20, 0); got != want {
		t.Fatalf("negative age not clamped: got %v, want %v", got, want)
	}
}

func TestAgeDays(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	if got := AgeDays(now.AddDate(0, 0, -10), now); got != 10 {
		t.Fatalf("AgeDays 10 days = %v", got)
	}
	// Partial days floor down.
	if got := AgeDays(now.Add(-36*time.Hour), now); got != 1 {
		t.Fatalf("AgeDays 36h = %v, want 1", got)
	}
	// Future createdAt clamps to zero.
	if got := AgeDays(now.Add(2*time.Hour), now); got != 0 {
		t.Fatalf("AgeDays future = %v, want 0", got)
	}
}

func TestTrendingKey(t *testing.T) {
	if got := TrendingKey(100, 20); got != 200 {
		t.Fatalf("TrendingKey(100,20) = %d, want 200", got)
	}
	if got := TrendingKey(0, 0); got != 0 {
		t.Fatalf("TrendingKey(0,0) = %d, want 0", got)
	}
}
