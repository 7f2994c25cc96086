package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"enterprise-docs-qa/internal/logger"
)

// Scheduler runs periodic maintenance jobs. Currently the only job is the
// optional reindex that keeps the vector index fresh against a changing
// corpus; reindex serialization is handled by the IndexManager, so a
// scheduled run never races an organic rebuild.
type Scheduler struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &Scheduler{scheduler: s}
}

func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// ScheduleReindex registers a periodic reindex of the corpus.
func (s *Scheduler) ScheduleReindex(interval time.Duration, assistant *Assistant) error {
	_, err := s.scheduler.Every(interval).Tag("reindex").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		result := assistant.Reindex(ctx)
		if result.Success {
			logger.Info("scheduled reindex completed", "message", result.Message)
		} else {
			logger.Warn("scheduled reindex did not succeed", "message", result.Message)
		}
	})
	return err
}
