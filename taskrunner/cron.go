package taskrunner

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleCron registers run to fire repeatedly according to a standard
// five-field cron expression, by computing each next fire time with
// robfig/cron's parser and feeding it through the ordinary Schedule path
// as a self-rescheduling task (spec §4.6's "delayNanos for its next
// firing", generalized from a fixed interval to a cron schedule).
func (q *TaskQueue) ScheduleCron(spec string, run func(ctx context.Context) error, opts ...TaskOption) (*Task, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, err
	}

	wrapped := func(ctx context.Context) (time.Duration, error) {
		err := run(ctx)
		next := schedule.Next(time.Now())
		return time.Until(next), err
	}

	initialDelay := time.Until(schedule.Next(time.Now()))
	return q.Schedule(wrapped, initialDelay, opts...)
}
