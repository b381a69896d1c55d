package client

import (
	"fmt"
	"time"
)

// RecencyBand grades how stale a timestamp is, for display coloring only.
// Banding never touches the data model; it is recomputed from timestamps on
// a low-priority timer by whoever renders.
type RecencyBand int

const (
	RecencyFresh   RecencyBand = iota // under 2 minutes
	RecencyAging                      // under 3 minutes
	RecencyStale                      // under 4 minutes
	RecencyOverdue                    // 4 minutes and beyond
)

// BandFor grades the age of a seconds-since-epoch timestamp at time now.
func BandFor(timestamp float64, now time.Time) RecencyBand {
	diff := now.Unix() - int64(timestamp)
	switch {
	case diff < 120:
		return RecencyFresh
	case diff < 180:
		return RecencyAging
	case diff < 240:
		return RecencyStale
	default:
		return RecencyOverdue
	}
}

// FormatTimeSince renders an mm:ss age for a seconds-since-epoch timestamp.
// A zero timestamp renders empty, matching a field that was never set.
func FormatTimeSince(timestamp float64, now time.Time) string {
	if timestamp == 0 {
		return ""
	}
	diff := now.Unix() - int64(timestamp)
	if diff < 0 {
		diff = 0
	}
	return fmt.Sprintf("%02d:%02d", diff/60, diff%60)
}
