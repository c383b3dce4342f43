package util

import (
	"fmt"
	"math"
)

// FormatSceneTime renders an offset in seconds as MM:SS. Minutes are not
// wrapped into hours, so a 100 minute offset renders as "100:00".
func FormatSceneTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	minutes := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// FormatDate renders a calendar date as YYYY-MM-DD with zero padding.
func FormatDate(year, month, day int) string {
	return fmt.Sprintf("%d-%02d-%02d", year, month, day)
}
