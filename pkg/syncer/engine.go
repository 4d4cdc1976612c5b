package syncer

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"tagmirror/pkg/config"
	"tagmirror/pkg/dedup"
	errs "tagmirror/pkg/errors"
	"tagmirror/pkg/logger"
)

const (
	// remotePageSize is how many statuses are fetched per source server
	remotePageSize = 25

	// localPageSize is how many statuses are fetched from the local
	// server; larger than the remote page so the diff window on the local
	// side fully covers what the sources can return
	localPageSize = 40
)

// PassStats summarizes one hashtag pass
type PassStats struct {
	// Remote is the number of distinct status URLs seen across sources
	Remote int
	// Candidates is the number of statuses visible remotely but not locally
	Candidates int
	// Imported is the number of successful imports
	Imported int
	// Failed is the number of item-level failures (bad URL, quota, import error)
	Failed int
	// Pruned is the number of dedup entries dropped after the pass
	Pruned int
}

// Engine performs one synchronization pass for a hashtag at a time
type Engine struct {
	api      API
	cfg      *config.Config
	limiters *Limiters
	trackers map[string]*dedup.Tracker
	logger   logger.Logger
}

// NewEngine creates an engine sharing the scheduler-owned limiter state
func NewEngine(api API, cfg *config.Config, limiters *Limiters, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Engine{
		api:      api,
		cfg:      cfg,
		limiters: limiters,
		trackers: make(map[string]*dedup.Tracker),
		logger:   log,
	}
}

// SyncHashtag runs one pass for the hashtag: fetch remote timelines, diff
// against the local timeline, import new statuses, prune the dedup
// tracker. A returned error means the whole hashtag pass was aborted;
// item-level failures are only counted in the stats.
func (e *Engine) SyncHashtag(ctx context.Context, tag config.Hashtag) (PassStats, error) {
	var stats PassStats

	remote := make(map[string]struct{})
	for _, server := range tag.Sources {
		if err := e.limiters.Queries.Wait(ctx, server); err != nil {
			return stats, err
		}
		statuses, err := e.api.TagTimeline(ctx, server, "", tag.Name, tag.Any, remotePageSize)
		if err != nil {
			return stats, fmt.Errorf("fetch remote %s: %w", server, err)
		}
		for _, status := range statuses {
			if status.URL != "" {
				remote[status.URL] = struct{}{}
			}
		}
	}
	stats.Remote = len(remote)

	// Local snowflake IDs encode the post's creation time, not its arrival
	// time, so a since_id cursor would hide older statuses imported late.
	// Diff against a fixed-size recent window instead.
	if err := e.limiters.Queries.Wait(ctx, e.cfg.Server); err != nil {
		return stats, err
	}
	locals, err := e.api.TagTimeline(ctx, e.cfg.Server, e.cfg.Auth.Token, tag.Name, tag.Any, localPageSize)
	if err != nil {
		return stats, fmt.Errorf("fetch local %s: %w", e.cfg.Server, err)
	}
	local := make(map[string]struct{}, len(locals))
	for _, status := range locals {
		local[status.URL] = struct{}{}
	}

	tracker := e.tracker(tag.Name)
	for statusURL := range remote {
		if _, ok := local[statusURL]; ok {
			continue
		}
		stats.Candidates++

		if tracker.Contains(statusURL) {
			continue
		}

		if err := e.importStatus(ctx, statusURL); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Failed++
			e.logger.WarnWithFields("skipping status", map[string]interface{}{
				"hashtag": tag.Name,
				"url":     statusURL,
				"error":   err.Error(),
			})
			continue
		}

		tracker.Mark(statusURL)
		stats.Imported++
		e.logger.InfoWithFields("imported status", map[string]interface{}{
			"hashtag": tag.Name,
			"url":     statusURL,
		})
	}

	// Keep only the intersection of imported and seen this pass; anything
	// gone from the remote side can never come back through the diff
	stats.Pruned = tracker.RetainOnly(remote)
	return stats, nil
}

// importStatus drives one candidate through the import limiters and the
// API call. Every error it returns is an item-level failure.
func (e *Engine) importStatus(ctx context.Context, statusURL string) error {
	host, err := statusHost(statusURL)
	if err != nil {
		return err
	}

	// Advisory check: spreading imports across upstreams matters more than
	// draining any single one, so a denied host is skipped, not waited on
	if ok, wait := e.limiters.Upstreams.TryAcquire(host); !ok {
		return errs.Newf(errs.ErrorTypeQuota, "import quota for %s exhausted, next permit in %s",
			host, wait.Round(time.Second))
	}

	if err := e.limiters.Imports.Wait(ctx); err != nil {
		return err
	}
	// The import call is a query against the local server too
	if err := e.limiters.Queries.Wait(ctx, e.cfg.Server); err != nil {
		return err
	}

	return e.api.ImportStatus(ctx, e.cfg.Server, e.cfg.Auth.Token, statusURL)
}

// tracker returns the dedup tracker for a hashtag, creating it on first use
func (e *Engine) tracker(name string) *dedup.Tracker {
	t, ok := e.trackers[name]
	if !ok {
		t = dedup.NewTracker()
		e.trackers[name] = t
	}
	return t
}

// statusHost extracts the host a status URL points at
func statusHost(statusURL string) (string, error) {
	u, err := url.Parse(statusURL)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrorTypeBadURL, fmt.Sprintf("unparseable status url %q", statusURL))
	}
	host := u.Hostname()
	if host == "" {
		return "", errs.Newf(errs.ErrorTypeBadURL, "status url %q has no host", statusURL)
	}
	return host, nil
}
