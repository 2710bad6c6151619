package nftmetadata

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs a collection on a standard five-field cron expression.
// Overlapping runs are skipped.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(ctx context.Context, schedule string, run func(ctx context.Context) error, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{log: log.Named("nft-cron")}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	if _, err := c.AddFunc(schedule, func() {
		if err := run(ctx); err != nil {
			log.Error("nft metadata refresh failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop prevents new runs and waits for a running one to finish.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }

type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
