package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const digestTimeout = 2 * time.Minute

// Start registers the digest under spec and starts the cron runner. The
// caller stops it with Stop() on shutdown.
func Start(spec string, loc *time.Location, job *DigestJob, logger *zap.Logger) (*cron.Cron, error) {
	log := logger.Named("scheduler")
	if loc == nil {
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
		defer cancel()

		log.Info("running payment reminder digest")
		if _, err := job.Run(ctx); err != nil {
			log.Error("payment reminder digest failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Info("payment reminder digest scheduled",
		zap.String("spec", spec),
		zap.String("location", loc.String()),
	)
	return c, nil
}
