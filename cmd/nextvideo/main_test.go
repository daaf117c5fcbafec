package main

import (
	"testing"
	"time"
)

func TestNextDailyRunUTC(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"later today", time.Date(2026, 3, 1, 1, 30, 0, 0, time.UTC), time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)},
		{"already passed", time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)},
		{"exactly now rolls over", time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)},
		{"non-utc input", time.Date(2026, 3, 1, 1, 0, 0, 0, time.FixedZone("x", 2*3600)), time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextDailyRunUTC(tt.now, 3, 0); !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
