package trend

import (
	"testing"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/store"
)

func mkSamples(category string, values ...string) []store.Sample {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	out := make([]store.Sample, 0, len(values))
	for i, v := range values {
		out = append(out, store.Sample{
			ID:         int64(i + 1),
			OwnerID:    "u1",
			Category:   category,
			Value:      v,
			RecordedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return out
}

func TestAnalyzeDirections(t *testing.T) {
	cases := []struct {
		name   string
		values []string
		want   Direction
		mag    float64
	}{
		{"increasing", []string{"100", "110"}, Increasing, 10},
		{"decreasing", []string{"100", "90"}, Decreasing, 10},
		{"stable small change", []string{"100", "103"}, Stable, 3},
		{"exactly threshold is stable", []string{"100", "105"}, Stable, 5},
		{"just above threshold", []string{"100", "105.1"}, Increasing, 5.1},
		{"exactly negative threshold is stable", []string{"100", "95"}, Stable, 5},
		{"single sample", []string{"100"}, Insufficient, 0},
		{"non numeric", []string{"good", "bad"}, NonNumeric, 0},
		{"zero baseline", []string{"0", "50"}, NonNumeric, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results := Analyze(mkSamples("weight", tc.values...))
			if len(results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(results))
			}
			r := results[0]
			if r.Trend != tc.want {
				t.Errorf("trend = %s, want %s", r.Trend, tc.want)
			}
			if r.MagnitudePercent != tc.mag {
				t.Errorf("magnitude = %v, want %v", r.MagnitudePercent, tc.mag)
			}
			if r.Count != len(tc.values) {
				t.Errorf("count = %d, want %d", r.Count, len(tc.values))
			}
		})
	}
}

func TestAnalyzeIgnoresMiddleNoise(t *testing.T) {
	// Only endpoints matter; a noisy middle must not flip the direction.
	results := Analyze(mkSamples("weight", "100", "500", "1", "110"))
	if results[0].Trend != Increasing {
		t.Fatalf("trend = %s, want %s", results[0].Trend, Increasing)
	}
	if results[0].MagnitudePercent != 10 {
		t.Fatalf("magnitude = %v, want 10", results[0].MagnitudePercent)
	}
}

func TestAnalyzeGroupsByCategoryInFirstSeenOrder(t *testing.T) {
	samples := append(mkSamples("weight", "80", "90"), mkSamples("steps", "1000", "900")...)
	results := Analyze(samples)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Category != "weight" || results[1].Category != "steps" {
		t.Fatalf("unexpected order: %s, %s", results[0].Category, results[1].Category)
	}
	if results[0].Trend != Increasing {
		t.Errorf("weight trend = %s, want %s", results[0].Trend, Increasing)
	}
	if results[1].Trend != Decreasing {
		t.Errorf("steps trend = %s, want %s", results[1].Trend, Decreasing)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	if got := Analyze(nil); len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestAnalyzeLatestIsLastSample(t *testing.T) {
	samples := mkSamples("weight", "80", "81", "82")
	r := Analyze(samples)[0]
	if r.Latest == nil || r.Latest.Value != "82" {
		t.Fatalf("latest = %+v, want value 82", r.Latest)
	}
}
