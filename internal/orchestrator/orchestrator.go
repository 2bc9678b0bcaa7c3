package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"autopress/internal/audit"
	"autopress/internal/config"
	"autopress/internal/driver"
	"autopress/internal/logging"
)

// DriverFactory builds a fresh, uninitialized driver. Each task gets its own
// instances; drivers are never pooled across tasks.
type DriverFactory func() driver.Driver

// Verifier checks a published post after the fact. Implemented by the verify
// package; nil disables the check.
type Verifier interface {
	VerifyPost(ctx context.Context, url, title string) error
}

// Publisher runs publish tasks. Safe for concurrent Publish calls; each call
// owns its own context and driver pair.
type Publisher struct {
	cfg      config.PublishConfig
	primary  DriverFactory
	fallback DriverFactory // nil when no fallback is configured
	recorder *audit.Recorder
	verifier Verifier
}

// New creates a publisher. fallback may be nil.
func New(cfg config.PublishConfig, primary, fallback DriverFactory, recorder *audit.Recorder) *Publisher {
	return &Publisher{
		cfg:      cfg,
		primary:  primary,
		fallback: fallback,
		recorder: recorder,
	}
}

// WithVerifier enables the post-publish live-URL check.
func (p *Publisher) WithVerifier(v Verifier) *Publisher {
	p.verifier = v
	return p
}

func (p *Publisher) maxRetries() int {
	if p.cfg.MaxRetries <= 0 {
		return 3
	}
	return p.cfg.MaxRetries
}

// phase pairs a name with its operation sequence.
type phase struct {
	name string
	run  func(ctx context.Context, d driver.Driver, pctx *PublishingContext) error
}

func (p *Publisher) phases() []phase {
	return []phase{
		{"login", p.phaseLogin},
		{"fill-content", p.phaseFillContent},
		{"process-images", p.phaseProcessImages},
		{"set-metadata", p.phaseSetMetadata},
		{"publish", p.phasePublish},
	}
}

// Publish runs one task end to end and always returns a result carrying the
// full audit trail. Errors never escape as panics or bare returns.
func (p *Publisher) Publish(ctx context.Context, req *PublishRequest) PublishResult {
	taskID := uuid.NewString()
	if err := req.Validate(); err != nil {
		// Rejected before any driver initializes; the trail stays empty.
		return p.failure(taskID, err)
	}

	pctx := &PublishingContext{TaskID: taskID, Request: req}
	if len(req.Cookies) > 0 {
		// Resume a previously captured session; this is the jar's single
		// set, so the login phase's own capture becomes a no-op.
		pctx.SetCookies(req.Cookies)
	}
	logging.Orchestrator("[%s] publishing %q to %s", taskID, req.Article.Title, req.BaseURL)

	active := p.primary()
	if err := active.Init(ctx, req.BaseURL, pctx.Cookies()); err != nil {
		return p.failure(taskID, err)
	}
	// The active driver changes across a provider switch; close whichever is
	// live when the task exits, exactly once.
	defer func() {
		if active != nil {
			if err := active.Close(ctx); err != nil {
				logging.OrchestratorWarn("[%s] driver close: %v", taskID, err)
			}
		}
	}()

	switched := false
	for _, ph := range p.phases() {
		next, didSwitch, err := p.runPhase(ctx, ph, active, pctx, switched)
		active = next
		switched = switched || didSwitch
		if err != nil {
			return p.failure(taskID, err)
		}
	}

	if p.verifier != nil && p.cfg.VerifyLiveURL && pctx.PublishedURL != "" {
		if err := p.verifier.VerifyPost(ctx, pctx.PublishedURL, req.Article.Title); err != nil {
			// The post went out; a verification miss is logged, not fatal.
			logging.OrchestratorWarn("[%s] live URL verification: %v", taskID, err)
		}
	}

	logging.Orchestrator("[%s] published: %s", taskID, pctx.PublishedURL)
	return PublishResult{
		Success:      true,
		TaskID:       taskID,
		PublishedURL: pctx.PublishedURL,
		Trail:        p.recorder.Trail(taskID),
	}
}

// runPhase executes one phase with the per-phase retry loop and, when the
// primary's budget is spent, the one-directional provider switch. It returns
// the driver that is active afterwards.
func (p *Publisher) runPhase(ctx context.Context, ph phase, active driver.Driver, pctx *PublishingContext, alreadySwitched bool) (driver.Driver, bool, error) {
	attempt := 0
	switched := false
	var lastErr error

	for {
		attempt++
		p.screenshot(ctx, active, pctx.TaskID, ph.name, "before", attempt)

		err := ph.run(ctx, active, pctx)
		if err == nil {
			p.screenshot(ctx, active, pctx.TaskID, ph.name, "after", attempt)
			p.recorder.PhaseSuccess(pctx.TaskID, ph.name, string(active.Kind()), attempt)
			return active, switched, nil
		}

		lastErr = err
		p.recorder.PhaseFailure(pctx.TaskID, ph.name, string(active.Kind()), attempt, err)

		if !driver.IsRecoverable(err) {
			return active, switched, &TaskError{Phase: ph.name, Attempts: attempt, Switched: switched || alreadySwitched, Err: err}
		}
		if attempt < p.maxRetries() {
			select {
			case <-ctx.Done():
				return active, switched, &TaskError{Phase: ph.name, Attempts: attempt, Switched: switched || alreadySwitched, Err: ctx.Err()}
			case <-time.After(p.cfg.RetryDelay()):
			}
			continue
		}

		// Retry budget spent on this driver. Fallback is one-directional:
		// once a task is on the fallback it never switches back.
		canSwitch := p.fallback != nil && !switched && !alreadySwitched && active.Kind() == driver.KindDeterministic
		if !canSwitch {
			return active, switched, &TaskError{Phase: ph.name, Attempts: attempt, Switched: switched || alreadySwitched, Err: lastErr}
		}

		from := string(active.Kind())
		if cerr := active.Close(ctx); cerr != nil {
			logging.OrchestratorWarn("[%s] closing %s driver before switch: %v", pctx.TaskID, from, cerr)
		}
		next := p.fallback()
		if ierr := next.Init(ctx, pctx.Request.BaseURL, pctx.Cookies()); ierr != nil {
			return next, switched, &TaskError{Phase: ph.name, Attempts: attempt, Switched: true, Err: ierr}
		}
		p.recorder.ProviderSwitch(pctx.TaskID, ph.name, from, string(next.Kind()))
		logging.Orchestrator("[%s] switched to %s driver during %s", pctx.TaskID, next.Kind(), ph.name)
		active = next
		switched = true
		attempt = 0
	}
}

func (p *Publisher) screenshot(ctx context.Context, d driver.Driver, taskID, phase, edge string, attempt int) {
	png, err := d.Screenshot(ctx)
	if err != nil {
		logging.OrchestratorWarn("[%s] %s %s screenshot: %v", taskID, phase, edge, err)
		return
	}
	label := fmt.Sprintf("%s_a%02d_%s", phase, attempt, edge)
	p.recorder.Screenshot(taskID, phase, label, png)
}

func (p *Publisher) failure(taskID string, err error) PublishResult {
	logging.OrchestratorError("[%s] task failed: %v", taskID, err)
	return PublishResult{
		Success:     false,
		TaskID:      taskID,
		Trail:       p.recorder.Trail(taskID),
		Err:         err,
		ErrorDetail: err.Error(),
	}
}
