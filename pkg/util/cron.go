package util

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Five-field expressions only (minute hour dom month dow), the same dialect
// asynq.Scheduler accepts.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronExpr rejects expressions the scheduler would fail to register.
func ValidateCronExpr(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// NextCronTime returns the first activation of expr strictly after from, in UTC.
func NextCronTime(expr string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return sched.Next(from.UTC()), nil
}
