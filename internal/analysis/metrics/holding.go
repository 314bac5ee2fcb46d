package metrics

import (
	"fmt"
	"time"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

// HoldingMinutes returns whole minutes between open and close. Missing or
// reversed timestamps give 0.
func HoldingMinutes(opened, closed time.Time) int {
	if opened.IsZero() || closed.IsZero() || closed.Before(opened) {
		return 0
	}
	return int(closed.Sub(opened) / time.Minute)
}

// FormatHolding renders minutes as "45m", "2h 15m" or "3d 4h".
func FormatHolding(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	switch {
	case minutes < minutesPerHour:
		return fmt.Sprintf("%dm", minutes)
	case minutes < minutesPerDay:
		return fmt.Sprintf("%dh %dm", minutes/minutesPerHour, minutes%minutesPerHour)
	default:
		return fmt.Sprintf("%dd %dh", minutes/minutesPerDay, minutes%minutesPerDay/minutesPerHour)
	}
}
