package scheduler

import (
	"context"
	"time"

	"talent-pipeline/internal/logger"
)

type Task func(ctx context.Context) error

// Every runs task now and then on each tick until ctx is done. A failed run
// is logged and the loop carries on.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	log := logger.Component("scheduler").WithField("task", name)

	run := func() {
		if err := task(ctx); err != nil {
			log.WithError(err).Error("task failed")
		}
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
