package view

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// FormatNumber renders whole numbers without decimals and everything else with one.
func FormatNumber(value float64) string {
	if value == math.Trunc(value) {
		return strconv.FormatFloat(value, 'f', 0, 64)
	}
	return strconv.FormatFloat(value, 'f', 1, 64)
}

// FormatClock renders a duration as MM:SS. Minutes are not wrapped at 60.
func FormatClock(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	total := int(elapsed / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatPercent renders round(p) followed by a percent sign.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(p)))
}
