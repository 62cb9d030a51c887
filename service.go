// service.go: Periodic background service owned by the host
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	// DefaultServiceInterval is the period between background task runs.
	DefaultServiceInterval = 60 * time.Second

	// ServiceStopTimeout bounds how long Stop waits for a running task.
	ServiceStopTimeout = 5 * time.Second
)

// Task is the work a BackgroundService runs on every tick. The context is
// cancelled when the service stops.
type Task func(ctx context.Context)

// ServiceOption configures a BackgroundService.
type ServiceOption func(*BackgroundService)

// WithInterval sets the period between runs. Non-positive values are ignored.
func WithInterval(interval time.Duration) ServiceOption {
	return func(s *BackgroundService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithTask replaces the default task, which only logs that it ran.
func WithTask(task Task) ServiceOption {
	return func(s *BackgroundService) {
		if task != nil {
			s.task = task
		}
	}
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger Logger) ServiceOption {
	return func(s *BackgroundService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRunImmediately runs the task once as soon as the service starts
// instead of waiting for the first interval.
func WithRunImmediately() ServiceOption {
	return func(s *BackgroundService) { s.runImmediately = true }
}

// BackgroundService runs a task periodically until stopped.
//
// The service is an ordinary value owned by the host: create it with
// NewBackgroundService, Start it, and Stop it at shutdown. Runs never
// overlap; a run that is still in progress when the next tick fires causes
// that tick to be skipped. A panicking task is recovered and logged, and
// the service keeps running. A stopped service can be started again.
//
// Example usage:
//
//	svc := exampleplugin.NewBackgroundService(pluginDir,
//	    exampleplugin.WithInterval(time.Minute),
//	    exampleplugin.WithTask(func(ctx context.Context) { syncData(ctx) }))
//	if err := svc.Start(ctx); err != nil {
//	    return err
//	}
//	defer svc.Stop()
type BackgroundService struct {
	name           string
	interval       time.Duration
	task           Task
	logger         Logger
	runImmediately bool

	mu        sync.Mutex
	scheduler gocron.Scheduler
	cancel    context.CancelFunc
	runs      atomic.Int64
}

// NewBackgroundService creates a stopped service for the plugin at
// pluginDir.
func NewBackgroundService(pluginDir string, opts ...ServiceOption) *BackgroundService {
	s := &BackgroundService{
		name:     filepath.Base(pluginDir),
		interval: DefaultServiceInterval,
		logger:   NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("service", s.name)
	if s.task == nil {
		s.task = func(context.Context) {
			s.logger.Info("Background task running")
		}
	}
	return s
}

// Start schedules the task. Calling Start on a running service is a no-op.
func (s *BackgroundService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler != nil {
		return nil
	}

	scheduler, err := gocron.NewScheduler(
		gocron.WithLogger(s.logger),
		gocron.WithStopTimeout(ServiceStopTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	jobOpts := []gocron.JobOption{
		gocron.WithName(s.name + "-background"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if s.runImmediately {
		jobOpts = append(jobOpts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	if _, err := scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.execute(runCtx) }),
		jobOpts...,
	); err != nil {
		cancel()
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to schedule background task: %w", err)
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.cancel = cancel

	s.logger.Info("Background service started", "interval", s.interval)
	return nil
}

// Stop cancels the task context and waits for a run in progress to finish.
// Calling Stop on a stopped service is a no-op.
func (s *BackgroundService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return nil
	}

	s.cancel()
	err := s.scheduler.Shutdown()
	s.scheduler = nil
	s.cancel = nil

	if err != nil {
		s.logger.Error("Background service stopped with error", "error", err)
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	s.logger.Info("Background service stopped", "runs", s.runs.Load())
	return nil
}

// Running reports whether the service is started.
func (s *BackgroundService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler != nil
}

// Runs returns how many times the task has been started.
func (s *BackgroundService) Runs() int64 {
	return s.runs.Load()
}

func (s *BackgroundService) execute(ctx context.Context) {
	defer withStackRecover(s.logger)()
	if ctx.Err() != nil {
		return
	}
	s.runs.Add(1)
	s.task(ctx)
}
