package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"autopress/internal/audit"
	"autopress/internal/config"
	"autopress/internal/driver"
	"autopress/internal/driver/rodui"
	"autopress/internal/driver/session"
	"autopress/internal/driver/vision"
	"autopress/internal/logging"
	"autopress/internal/orchestrator"
	"autopress/internal/resolver"
	"autopress/internal/verify"
)

// app wires the full publishing stack from the config file. One app serves
// any number of publish tasks; drivers are created per task.
type app struct {
	cfg       config.Config
	publisher *orchestrator.Publisher
	recorder  *audit.Recorder
	journal   *audit.Journal
	watcher   *resolver.Watcher
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if headed {
		cfg.Browser.Headless = false
	}
	if verbose {
		cfg.Logging.DebugMode = true
	}
	if err := logging.Initialize(cfg.Audit.LogsDir, cfg.Logging); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	logging.Boot("autopress starting (config %s)", configPath)

	res, err := resolver.Load(cfg.Resolver.SelectorPath, cfg.Resolver.InstructionPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}
	if cfg.Resolver.Watch {
		w, err := resolver.Watch(res)
		if err != nil {
			logger.Warn("artifact watch unavailable", zap.Error(err))
		} else {
			a.watcher = w
		}
	}

	opts := []audit.Option{}
	if cfg.Audit.Dir != "" {
		store, err := audit.NewFSStore(cfg.Audit.Dir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, audit.WithScreenshotStore(store))
	}
	if cfg.Audit.JournalPath != "" {
		journal, err := audit.OpenJournal(cfg.Audit.JournalPath)
		if err != nil {
			return nil, err
		}
		a.journal = journal
		opts = append(opts, audit.WithJournal(journal))
	}
	a.recorder = audit.NewRecorder(opts...)

	sessionCfg := session.Config{
		DebuggerURL:    cfg.Browser.DebuggerURL,
		Binary:         cfg.Browser.Binary,
		LaunchFlags:    cfg.Browser.LaunchFlags,
		Headless:       cfg.Browser.Headless,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		NavTimeout:     cfg.Browser.NavigationTimeout(),
	}
	primary := func() driver.Driver {
		return rodui.New(rodui.Config{
			Session:      sessionCfg,
			PollWindow:   cfg.Browser.PollWindow(),
			PollInterval: cfg.Browser.PollInterval(),
		}, res.Snapshot())
	}

	var fallback orchestrator.DriverFactory
	if cfg.Publish.EnableVision && !publishNoFallback {
		backend, err := vision.NewGenAIBackend(ctx, cfg.Vision.APIKey, cfg.Vision.Model)
		if err != nil {
			logger.Warn("vision fallback unavailable", zap.Error(err))
		} else {
			fallback = func() driver.Driver {
				return vision.New(vision.Config{
					Session:  sessionCfg,
					MaxSteps: cfg.Vision.MaxSteps,
				}, res.Snapshot(), backend)
			}
		}
	}

	a.publisher = orchestrator.New(cfg.Publish, primary, fallback, a.recorder)
	if cfg.Publish.VerifyLiveURL {
		a.publisher.WithVerifier(verify.New(15 * time.Second))
	}
	return a, nil
}

func (a *app) close() {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if a.journal != nil {
		_ = a.journal.Close()
	}
}
