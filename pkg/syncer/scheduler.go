package syncer

import (
	"context"
	"time"

	"tagmirror/pkg/config"
	"tagmirror/pkg/logger"
)

// Scheduler drives the engine over every configured hashtag, pass after
// pass, until the context is cancelled. It owns the limiter set and the
// housekeeping between passes.
type Scheduler struct {
	engine   *Engine
	cfg      *config.Config
	limiters *Limiters
	logger   logger.Logger
}

// NewScheduler creates a scheduler over the given engine and limiter set
func NewScheduler(engine *Engine, cfg *config.Config, limiters *Limiters, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scheduler{
		engine:   engine,
		cfg:      cfg,
		limiters: limiters,
		logger:   log,
	}
}

// Run executes passes forever. It only returns when ctx is cancelled;
// sync failures are logged and survived.
func (s *Scheduler) Run(ctx context.Context) error {
	names := make([]string, len(s.cfg.Hashtags))
	for i, tag := range s.cfg.Hashtags {
		names[i] = tag.Name
	}
	s.logger.InfoWithFields("starting sync loop", map[string]interface{}{
		"server":   s.cfg.Server,
		"hashtags": names,
	})

	for pass := 1; ; pass++ {
		for _, tag := range s.cfg.Hashtags {
			stats, err := s.engine.SyncHashtag(ctx, tag)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.WarnWithFields("hashtag pass failed", map[string]interface{}{
					"hashtag": tag.Name,
					"pass":    pass,
					"error":   err.Error(),
				})
				continue
			}
			s.logger.InfoWithFields("hashtag pass complete", map[string]interface{}{
				"hashtag":    tag.Name,
				"pass":       pass,
				"remote":     stats.Remote,
				"candidates": stats.Candidates,
				"imported":   stats.Imported,
				"failed":     stats.Failed,
				"pruned":     stats.Pruned,
			})
		}

		if err := sleep(ctx, s.cfg.Rates.PassDelay.Duration()); err != nil {
			return err
		}
		if err := s.limiters.Passes.Wait(ctx); err != nil {
			return err
		}

		// The upstream limiter grows a bucket per remote host ever seen;
		// sweep recovered buckets so it stays bounded
		if dropped := s.limiters.Upstreams.Compact(); dropped > 0 {
			s.logger.DebugWithFields("compacted upstream limiter", map[string]interface{}{
				"dropped": dropped,
			})
		}
	}
}

// sleep waits for the duration or until the context is cancelled
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
