package utils

import (
	"fmt"
	"math"
)

// maxClockSeconds is the largest position with an exact whole-second value.
// Larger positions render as this clock instead of overflowing.
const maxClockSeconds = 1 << 53

// FormatClock renders a playback position as mm:ss. Minutes are not wrapped
// into hours. Negative and non-finite positions render as 00:00.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "00:00"
	}
	total := int64(math.Min(seconds, maxClockSeconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
