package services

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/meshaid/backend/usecase/taskflow"
)

// ExpirySweeper periodically turns elapsed TTLs into explicit expirations.
// Tasks never expire on their own; this job is the caller that makes the
// transition happen.
type ExpirySweeper struct {
	tasks    *taskflow.UseCase
	schedule string
	logger   *zap.Logger
	cron     *cron.Cron
}

func NewExpirySweeper(tasks *taskflow.UseCase, schedule string, logger *zap.Logger) *ExpirySweeper {
	if schedule == "" {
		schedule = "@every 1m"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sw := &ExpirySweeper{
		tasks:    tasks,
		schedule: schedule,
		logger:   logger,
		cron:     cron.New(),
	}
	_, _ = sw.cron.AddFunc(schedule, sw.Sweep)
	return sw
}

func (sw *ExpirySweeper) Start() {
	if sw == nil || sw.cron == nil {
		return
	}
	sw.cron.Start()
	sw.logger.Info("expiry sweeper started", zap.String("schedule", sw.schedule))
}

func (sw *ExpirySweeper) Stop(ctx context.Context) {
	if sw == nil || sw.cron == nil {
		return
	}
	stopCtx := sw.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	sw.logger.Info("expiry sweeper stopped")
}

// Sweep expires every open task whose TTL already elapsed.
func (sw *ExpirySweeper) Sweep() {
	ctx := context.Background()
	for _, id := range sw.tasks.ExpiryCandidates() {
		if _, err := sw.tasks.Expire(ctx, id); err != nil {
			sw.logger.Warn("task expiry failed", zap.String("task_id", id), zap.Error(err))
			continue
		}
		sw.logger.Info("task expired", zap.String("task_id", id))
	}
}
