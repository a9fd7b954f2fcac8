package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/clubhub/clubhub/internal/banners"
	jobmetrics "github.com/clubhub/clubhub/internal/jobs"
)

// TaskTypeBannerSweep deactivates banners past their display window.
const TaskTypeBannerSweep = "banners:sweep"

// BannerSweepJob retires expired banners on a schedule.
type BannerSweepJob struct {
	service *banners.Service
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewBannerSweepJob constructs the sweep job.
func NewBannerSweepJob(service *banners.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *BannerSweepJob {
	return &BannerSweepJob{service: service, logger: logger, metrics: metrics}
}

// NewBannerSweepTask constructs the task enqueued by the scheduler.
func NewBannerSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeBannerSweep, nil)
}

// Handle runs the sweep.
func (j *BannerSweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := j.metrics.Track("banner_sweep")
	swept, err := j.service.SweepExpired(ctx)
	if err != nil {
		j.logger.Error("banner sweep", slog.Any("error", err))
		return tracker.End(err)
	}
	if swept > 0 {
		j.logger.Info("banner sweep", slog.Int64("deactivated", swept))
	}
	return tracker.End(nil)
}
