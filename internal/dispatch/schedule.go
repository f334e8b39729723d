package dispatch

import (
	"time"

	"github.com/ignite/outreach-crm/internal/domain"
)

// ShouldRun reports whether the configuration's recurrence rule matches the
// given wall-clock instant. The rule fires only in the exact minute it names
// (seconds are ignored); on any unrecognized schedule type it returns false.
func ShouldRun(cfg domain.AutoDMConfig, now time.Time) bool {
	if now.Hour() != cfg.ScheduleHour() || now.Minute() != cfg.ScheduleMinute() {
		return false
	}
	switch cfg.ScheduleType {
	case domain.ScheduleDaily:
		return true
	case domain.ScheduleWeekly:
		return int(now.Weekday()) == cfg.ScheduleDay
	case domain.ScheduleMonthly:
		return now.Day() == cfg.ScheduleDay
	default:
		return false
	}
}
