// Package batch fans independent publish requests out over the orchestrator
// with a bounded concurrency limit. One task's failure never cancels its
// siblings; the coordinator always returns one result per request, in
// request order.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"autopress/internal/logging"
	"autopress/internal/orchestrator"
)

// Runner is the per-request publish entry point. *orchestrator.Publisher
// satisfies it.
type Runner interface {
	Publish(ctx context.Context, req *orchestrator.PublishRequest) orchestrator.PublishResult
}

// Coordinator runs batches.
type Coordinator struct {
	runner        Runner
	maxConcurrent int
}

// New creates a coordinator. maxConcurrent values below 1 are clamped to 1.
func New(runner Runner, maxConcurrent int) *Coordinator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Coordinator{runner: runner, maxConcurrent: maxConcurrent}
}

// Run publishes every request with at most maxConcurrent tasks in flight and
// returns results positionally. Failures land in their result slot; the
// group error is always nil because tasks never abort each other.
func (c *Coordinator) Run(ctx context.Context, reqs []*orchestrator.PublishRequest) []orchestrator.PublishResult {
	results := make([]orchestrator.PublishResult, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)
	for i, req := range reqs {
		g.Go(func() error {
			logging.Batch("task %d/%d: %q", i+1, len(reqs), req.Article.Title)
			results[i] = c.runner.Publish(ctx, req)
			if !results[i].Success {
				logging.BatchWarn("task %d/%d failed: %s", i+1, len(reqs), results[i].ErrorDetail)
			}
			// Failures are carried in the result slot, never returned,
			// so the group context stays live for the other tasks.
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		}
	}
	logging.Batch("batch complete: %d/%d succeeded", ok, len(reqs))
	return results
}
