package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is a unit of periodic work
type Task interface {
	Run(ctx context.Context) error
	Interval() time.Duration
	Name() string
}

// Scheduler runs each task on its own ticker until stopped
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	tasks  []Task
	group  *errgroup.Group
}

// New creates a scheduler bound to ctx
func New(ctx context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddTask registers a task. Tasks added after Start are not run.
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start launches every registered task
func (s *Scheduler) Start() {
	slog.Info("Starting task scheduler")

	var g errgroup.Group
	for _, task := range s.tasks {
		task := task
		g.Go(func() error {
			s.runTask(task)
			return nil
		})
	}
	s.group = &g

	slog.Info("Task scheduler started", "task_count", len(s.tasks))
}

// Stop cancels all tasks and waits for in-flight runs to return
func (s *Scheduler) Stop() {
	slog.Info("Stopping task scheduler")
	s.cancel()
	if s.group != nil {
		_ = s.group.Wait()
	}
	slog.Info("Task scheduler stopped")
}

// runTask runs task immediately and then on every tick. Runs never overlap; the ticker
// coalesces ticks missed during a slow run.
func (s *Scheduler) runTask(task Task) {
	ticker := time.NewTicker(task.Interval())
	defer ticker.Stop()

	s.runOnce(task)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(task)
		}
	}
}

func (s *Scheduler) runOnce(task Task) {
	start := time.Now()
	if err := task.Run(s.ctx); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		slog.Error("Error running task", "task", task.Name(), "error", err)
		return
	}
	slog.Debug("Task run complete", "task", task.Name(), "duration", time.Since(start))
}
