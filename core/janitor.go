package core

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// expiredPurger is satisfied by pgstore.NonceStore.
type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// StartJanitor schedules periodic purging of expired nonce records. The
// schedule uses cron syntax; empty defaults to every ten minutes. Stop the
// returned cron when shutting down.
func StartJanitor(purger expiredPurger, schedule string, log *logrus.Entry) (*cron.Cron, error) {
	if schedule == "" {
		schedule = "@every 10m"
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := purger.PurgeExpired(ctx)
		if err != nil {
			log.WithError(err).Warn("nonce purge failed")
			return
		}
		if n > 0 {
			log.WithField("purged", n).Info("purged expired nonces")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
