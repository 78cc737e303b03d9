// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package deadline derives the next alert instant from the last check-in
// and the configured threshold.
package deadline

import (
	"testing"
	"time"
)

func TestNextAlertTime_Basic(t *testing.T) {
	last := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	got := NextAlertTime(last, 72)
	want := time.Date(2024, time.January, 4, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextAlertTime(72h) = %v, want %v", got, want)
	}
}

func TestNextAlertTime_ZeroThreshold(t *testing.T) {
	last := time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)
	if got := NextAlertTime(last, 0); !got.Equal(last) {
		t.Errorf("NextAlertTime(0h) = %v, want last check-in %v", got, last)
	}
}

func TestNextAlertTime_Monotonic(t *testing.T) {
	last := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	prev := NextAlertTime(last, 0)
	for hours := 1; hours <= 480; hours++ {
		next := NextAlertTime(last, hours)
		if !next.After(prev) {
			t.Fatalf("NextAlertTime not increasing at %d hours: %v -> %v", hours, prev, next)
		}
		if next.Sub(prev) != time.Hour {
			t.Fatalf("step at %d hours = %v, want 1h", hours, next.Sub(prev))
		}
		prev = next
	}
}

func TestNextAlertTime_NoCalendarDependence(t *testing.T) {
	// 24 hours across a month boundary and across a leap day must both be
	// exactly 86,400,000 ms; the fixed-point representation guarantees it.
	cases := []time.Time{
		time.Date(2024, time.January, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 28, 12, 0, 0, 0, time.UTC),
		time.Date(2023, time.December, 31, 6, 0, 0, 0, time.UTC),
	}
	for _, last := range cases {
		got := NextAlertTime(last, 24)
		if got.Sub(last) != 24*time.Hour {
			t.Errorf("NextAlertTime from %v: delta = %v, want 24h", last, got.Sub(last))
		}
	}
}

func TestNextAlertTime_NonUTCInput(t *testing.T) {
	// Input zone must not shift the instant.
	zone := time.FixedZone("EST", -5*3600)
	lastLocal := time.Date(2024, time.January, 1, 0, 0, 0, 0, zone)
	lastUTC := lastLocal.UTC()

	if got, want := NextAlertTime(lastLocal, 48), NextAlertTime(lastUTC, 48); !got.Equal(want) {
		t.Errorf("zone-dependent result: %v vs %v", got, want)
	}
}

func TestRemaining(t *testing.T) {
	last := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	now := last.Add(10 * time.Hour)
	if got := Remaining(last, 48, now); got != 38*time.Hour {
		t.Errorf("Remaining = %v, want 38h", got)
	}

	// Past deadline goes negative.
	now = last.Add(50 * time.Hour)
	if got := Remaining(last, 48, now); got != -2*time.Hour {
		t.Errorf("Remaining past deadline = %v, want -2h", got)
	}
}

// =============================================================================
// DISPLAY FORMATTING
// =============================================================================

func TestFormatInstant(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"basic", time.Date(2024, time.January, 4, 0, 0, 0, 0, time.UTC), "4th January 2024, 12:00 AM"},
		{"afternoon", time.Date(2024, time.March, 22, 15, 5, 0, 0, time.UTC), "22nd March 2024, 3:05 PM"},
		{"first", time.Date(2025, time.May, 1, 9, 30, 0, 0, time.UTC), "1st May 2025, 9:30 AM"},
		{"third", time.Date(2025, time.May, 3, 23, 59, 0, 0, time.UTC), "3rd May 2025, 11:59 PM"},
		{"eleventh", time.Date(2025, time.May, 11, 12, 0, 0, 0, time.UTC), "11th May 2025, 12:00 PM"},
		{"twelfth", time.Date(2025, time.May, 12, 1, 0, 0, 0, time.UTC), "12th May 2025, 1:00 AM"},
		{"thirteenth", time.Date(2025, time.May, 13, 1, 0, 0, 0, time.UTC), "13th May 2025, 1:00 AM"},
		{"twenty-first", time.Date(2025, time.May, 21, 1, 0, 0, 0, time.UTC), "21st May 2025, 1:00 AM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatInstant(tt.t); got != tt.want {
				t.Errorf("FormatInstant = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatInstant_Reproducible(t *testing.T) {
	// Same instant expressed in different zones renders identically.
	zone := time.FixedZone("JST", 9*3600)
	instant := time.Date(2024, time.July, 4, 18, 0, 0, 0, time.UTC)
	if a, b := FormatInstant(instant), FormatInstant(instant.In(zone)); a != b {
		t.Errorf("zone-dependent formatting: %q vs %q", a, b)
	}
}
