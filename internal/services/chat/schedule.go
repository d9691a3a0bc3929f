package chat

import (
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// IsOnline reports whether an operator is expected to answer at now.
func IsOnline(s Settings, now time.Time) bool {
	if s.AlwaysOnline || len(s.OnlineHours) == 0 {
		return true
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil || s.Timezone == "" {
		loc = time.UTC
	}
	local := now.In(loc)
	minute := local.Hour()*60 + local.Minute()
	day := int(local.Weekday())

	for _, slot := range s.OnlineHours {
		if slot.Day != day {
			continue
		}
		start, okStart := parseClock(slot.Start)
		end, okEnd := parseClock(slot.End)
		if !okStart || !okEnd {
			continue
		}
		if minute >= start && minute < end {
			return true
		}
	}
	return false
}

// parseClock turns "HH:mm" into minutes after midnight.
func parseClock(value string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
