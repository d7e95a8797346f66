package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shaiso/Harvest/internal/domain"
)

// cronParser — парсер cron-выражений (5 полей, без секунд).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CalculateNextDue вычисляет следующее время запуска после from.
// Cron вычисляется в timezone расписания, результат — в UTC.
func CalculateNextDue(sched *domain.Schedule, from time.Time) (time.Time, error) {
	loc, err := location(sched.Timezone)
	if err != nil {
		return time.Time{}, err
	}

	schedule, err := cronParser.Parse(sched.CronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", sched.CronExpr, err)
	}

	return schedule.Next(from.In(loc)).UTC(), nil
}

// ValidateSchedule проверяет cron-выражение, timezone и items расписания.
func ValidateSchedule(sched *domain.Schedule) error {
	if _, err := cronParser.Parse(sched.CronExpr); err != nil {
		return fmt.Errorf("schedule %q: invalid cron expression %q: %w", sched.Name, sched.CronExpr, err)
	}
	if _, err := location(sched.Timezone); err != nil {
		return fmt.Errorf("schedule %q: %w", sched.Name, err)
	}
	if sched.Enabled && len(sched.Items) == 0 {
		return fmt.Errorf("schedule %q: no items", sched.Name)
	}
	seen := make(map[string]bool, len(sched.Items))
	for _, item := range sched.Items {
		item = strings.TrimSpace(item)
		if item == "" {
			return fmt.Errorf("schedule %q: empty item", sched.Name)
		}
		if seen[item] {
			return fmt.Errorf("schedule %q: duplicate item %q", sched.Name, item)
		}
		seen[item] = true
	}
	return nil
}

func location(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}
