package prompter

import (
	"fmt"
	"math"
)

const (
	// SpeedMultiplier converts the 1-100 speed dial into pixels per second.
	SpeedMultiplier = 1.5

	// EndTolerance is the slack in pixels allowed when detecting the end of
	// the script, absorbing offset rounding on the surface.
	EndTolerance = 1.0

	// MinVelocity floors the velocity used for time estimates so a zero
	// speed never divides by zero.
	MinVelocity = 0.1

	zeroTime = "00:00"
)

// TimeStats holds the playback time estimates for the current script
type TimeStats struct {
	TotalSeconds     float64 `json:"total_seconds"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	TotalTime        string  `json:"total_time"`
	RemainingTime    string  `json:"remaining_time"`
}

// PixelVelocity returns the scroll rate in pixels per second for a speed setting.
func PixelVelocity(scrollSpeed int) float64 {
	return float64(scrollSpeed) * SpeedMultiplier
}

// MaxScroll returns the scrollable extent of a surface. A nil surface has
// no extent.
func MaxScroll(s Surface) float64 {
	if s == nil {
		return 0
	}
	return s.ScrollHeight() - s.ClientHeight()
}

// ComputeStats derives total and remaining playback time from the scroll
// extent, the current offset and the speed setting.
func ComputeStats(maxScroll, offset float64, scrollSpeed int) TimeStats {
	velocity := math.Max(MinVelocity, PixelVelocity(scrollSpeed))

	total := maxScroll / velocity
	remaining := math.Max(0, (maxScroll-offset)/velocity)

	return TimeStats{
		TotalSeconds:     math.Max(0, total),
		RemainingSeconds: remaining,
		TotalTime:        FormatTime(total),
		RemainingTime:    FormatTime(remaining),
	}
}

// FormatTime renders seconds as MM:SS. Negative and non-finite input
// renders as 00:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return zeroTime
	}
	minutes := int64(math.Floor(seconds / 60))
	secs := int64(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
