package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"autopress/internal/orchestrator"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingRunner tracks in-flight concurrency and returns scripted results.
type countingRunner struct {
	mu       sync.Mutex
	inFlight int32
	peak     int32
	fail     map[string]bool // title -> fail
}

func (r *countingRunner) Publish(ctx context.Context, req *orchestrator.PublishRequest) orchestrator.PublishResult {
	n := atomic.AddInt32(&r.inFlight, 1)
	defer atomic.AddInt32(&r.inFlight, -1)
	r.mu.Lock()
	if n > r.peak {
		r.peak = n
	}
	r.mu.Unlock()

	time.Sleep(10 * time.Millisecond)
	if r.fail[req.Article.Title] {
		return orchestrator.PublishResult{
			TaskID:      "task-" + req.Article.Title,
			Err:         errors.New("scripted failure"),
			ErrorDetail: "scripted failure",
		}
	}
	return orchestrator.PublishResult{
		Success:      true,
		TaskID:       "task-" + req.Article.Title,
		PublishedURL: "https://example.com/" + req.Article.Title,
	}
}

func requests(n int) []*orchestrator.PublishRequest {
	reqs := make([]*orchestrator.PublishRequest, n)
	for i := range reqs {
		reqs[i] = &orchestrator.PublishRequest{
			Article:  orchestrator.Article{Title: fmt.Sprintf("post-%d", i), Body: "<p>x</p>"},
			BaseURL:  "https://example.com/wp-admin",
			Username: "editor",
			Password: "secret",
		}
	}
	return reqs
}

func TestConcurrencyBound(t *testing.T) {
	runner := &countingRunner{}
	results := New(runner, 2).Run(context.Background(), requests(8))

	require.Len(t, results, 8)
	assert.LessOrEqual(t, runner.peak, int32(2), "never more tasks in flight than the bound")
	for _, r := range results {
		assert.True(t, r.Success)
	}
}

func TestResultsArePositional(t *testing.T) {
	runner := &countingRunner{}
	reqs := requests(5)
	results := New(runner, 3).Run(context.Background(), reqs)

	for i, r := range results {
		assert.Equal(t, "task-"+reqs[i].Article.Title, r.TaskID)
	}
}

func TestOneFailureDoesNotCancelSiblings(t *testing.T) {
	runner := &countingRunner{fail: map[string]bool{"post-2": true}}
	results := New(runner, 2).Run(context.Background(), requests(6))

	require.Len(t, results, 6)
	for i, r := range results {
		if i == 2 {
			assert.False(t, r.Success)
			assert.Equal(t, "scripted failure", r.ErrorDetail)
			continue
		}
		assert.True(t, r.Success, "sibling %d ran to completion", i)
	}
}

func TestConcurrencyClampedToOne(t *testing.T) {
	runner := &countingRunner{}
	results := New(runner, 0).Run(context.Background(), requests(3))
	require.Len(t, results, 3)
	assert.Equal(t, int32(1), runner.peak)
}

func TestEmptyBatch(t *testing.T) {
	runner := &countingRunner{}
	results := New(runner, 2).Run(context.Background(), nil)
	assert.Empty(t, results)
}
