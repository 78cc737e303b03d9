// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package deadline derives the next alert instant from the last check-in
// and the configured threshold.
//
// The arithmetic is done over epoch milliseconds so the result never depends
// on month or day lengths: a threshold of 24 hours is exactly 86,400,000
// milliseconds regardless of the calendar date it spans.
package deadline

import (
	"fmt"
	"time"
)

// millisPerHour is the fixed-point conversion factor for threshold hours.
const millisPerHour = int64(time.Hour / time.Millisecond)

// NextAlertTime returns the instant at which the backend is expected to
// notify contacts if no further check-in occurs:
//
//	nextAlertTime = lastCheckIn + thresholdHours * 3600s
//
// The returned time is in UTC.
func NextAlertTime(lastCheckIn time.Time, thresholdHours int) time.Time {
	ms := lastCheckIn.UnixMilli() + int64(thresholdHours)*millisPerHour
	return time.UnixMilli(ms).UTC()
}

// Remaining returns the duration from now until the alert deadline.
// The result is negative once the deadline has passed.
func Remaining(lastCheckIn time.Time, thresholdHours int, now time.Time) time.Duration {
	return NextAlertTime(lastCheckIn, thresholdHours).Sub(now)
}

// =============================================================================
// DISPLAY FORMATTING
// =============================================================================

// FormatInstant renders an instant for display, e.g. "4th January 2024, 3:05 PM".
// This is a pure display concern: the output is reproducible from the instant
// alone and plays no part in the deadline arithmetic.
func FormatInstant(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%d%s %s %d, %s",
		t.Day(), ordinalSuffix(t.Day()), t.Month().String(), t.Year(), t.Format("3:04 PM"))
}

// ordinalSuffix returns the English ordinal suffix for a day of month.
func ordinalSuffix(day int) string {
	// 11th, 12th, 13th break the last-digit rule.
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
