package ingest

import (
	"context"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"
)

const lockKey = "ingest:lock"

// Scheduler runs the ingestor on a cron schedule. A Redis SETNX lock
// keeps concurrent replicas from ingesting the same window twice.
type Scheduler struct {
	Ingestor *Ingestor
	CronSpec string
	Rdb      *redis.Client
	Stop     chan struct{}
}

func (s *Scheduler) Start() error {
	expr, err := cronexpr.Parse(s.CronSpec)
	if err != nil {
		return err
	}
	go func() {
		for {
			next := expr.Next(time.Now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-s.Stop:
				timer.Stop()
				return
			case <-timer.C:
				s.tick()
			}
		}
	}()
	return nil
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	if s.Rdb != nil {
		ok, err := s.Rdb.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !ok {
			return
		}
		defer s.Rdb.Del(ctx, lockKey)
	}
	if err := s.Ingestor.Run(ctx); err != nil {
		s.Ingestor.Logger.Printf("scheduled run failed: %v", err)
	}
}
