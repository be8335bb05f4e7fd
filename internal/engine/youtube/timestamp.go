package youtube

import (
	"fmt"
	"math"
)

// FormatTimestamp renders a second offset as m:ss, or h:mm:ss from one hour on.
// Fractional seconds are truncated. Negative or non-finite input renders as 0:00.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
