package appointment

import (
	"math"
	"time"
)

// WindowState classifies a moment relative to an appointment's join window.
type WindowState string

const (
	WindowTooEarly WindowState = "too_early"
	WindowOpen     WindowState = "available"
	WindowExpired  WindowState = "expired"
)

// Default join window around the scheduled time, in minutes.
const (
	DefaultPreMinutes  = 10
	DefaultPostMinutes = 30
)

// Availability classifies now against the window [scheduledAt - pre,
// scheduledAt + post]. For too_early it also returns the whole minutes until
// the window opens, rounded up. Pure; safe for unrestricted concurrent use.
func Availability(scheduledAt, now time.Time, preMinutes, postMinutes int) (WindowState, int) {
	opens := scheduledAt.Add(-time.Duration(preMinutes) * time.Minute)
	closes := scheduledAt.Add(time.Duration(postMinutes) * time.Minute)

	if now.Before(opens) {
		return WindowTooEarly, int(math.Ceil(opens.Sub(now).Minutes()))
	}
	if now.After(closes) {
		return WindowExpired, 0
	}
	return WindowOpen, 0
}
