package offer

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// clockTime formats minutes past midnight as HH:MM.
func clockTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// arrivalTime returns the HH:MM arrival for a departure at depMinutes past
// midnight and a trip of durMinutes, suffixed with the whole-day offset when
// the arrival falls on a later date.
func arrivalTime(depMinutes, durMinutes int) string {
	total := depMinutes + durMinutes
	days := total / minutesPerDay
	s := clockTime(total % minutesPerDay)
	switch {
	case days == 1:
		s += " (+1 day)"
	case days > 1:
		s += fmt.Sprintf(" (+%d days)", days)
	}
	return s
}

// formatDuration renders minutes as "<H>h <M>m".
func formatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// durationHours parses the hour component of a "<H>h <M>m" string.
func durationHours(s string) (int, bool) {
	h, _, ok := strings.Cut(strings.TrimSpace(s), "h")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
