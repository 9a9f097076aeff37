package service

import (
	"fmt"
	"time"
)

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// AchievedAt carries a completion time for display and for machines.
type AchievedAt struct {
	Formatted string `json:"formatted"`
	Raw       string `json:"raw"`
}

func newAchievedAt(now, at time.Time) AchievedAt {
	return AchievedAt{
		Formatted: formatRelativeTime(now, at),
		Raw:       at.UTC().Format(isoLayout),
	}
}

func formatRelativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}

	diff := now.Sub(t)
	if diff < time.Minute {
		return "just now"
	}

	switch {
	case diff < time.Hour:
		return plural(int(diff/time.Minute), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff/time.Hour), "hour")
	}

	days := int(diff / (24 * time.Hour))
	switch {
	case days < 30:
		return plural(days, "day")
	case days < 365:
		return plural(days/30, "month")
	default:
		return plural(days/365, "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
