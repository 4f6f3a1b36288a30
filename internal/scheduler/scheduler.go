// Package scheduler runs the daemon's periodic tasks.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ludo/internal/logging"
)

// Task is one periodic job. Run is invoked once immediately at start and then
// on every interval tick until the scheduler stops.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// TaskState is a snapshot of one task for the status API.
type TaskState struct {
	Name     string    `json:"name"`
	Interval string    `json:"interval"`
	LastRun  time.Time `json:"lastRun"`
	LastErr  string    `json:"lastError,omitempty"`
}

// Scheduler owns one goroutine per task and tracks last-run state.
type Scheduler struct {
	tasks  []Task
	logger *slog.Logger

	mu     sync.Mutex
	states map[string]*TaskState

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a scheduler over the given tasks.
func New(logger *slog.Logger, tasks ...Task) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	states := make(map[string]*TaskState, len(tasks))
	for _, task := range tasks {
		states[task.Name] = &TaskState{Name: task.Name, Interval: task.Interval.String()}
	}
	return &Scheduler{
		tasks:  tasks,
		logger: logger.With(logging.String("component", "scheduler")),
		states: states,
	}
}

// Start launches every task loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, task)
	}
}

// Stop cancels the task loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	s.runOnce(ctx, task)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, task)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, task Task) {
	if ctx.Err() != nil {
		return
	}
	runID := uuid.NewString()
	started := time.Now().UTC()

	err := task.Run(ctx)
	if err != nil && ctx.Err() == nil {
		s.logger.Warn("task run failed",
			logging.String("task", task.Name),
			logging.String("run_id", runID),
			logging.Error(err))
	} else {
		s.logger.Debug("task run finished",
			logging.String("task", task.Name),
			logging.String("run_id", runID),
			logging.Duration("elapsed", time.Since(started)))
	}

	s.mu.Lock()
	state := s.states[task.Name]
	state.LastRun = started
	state.LastErr = ""
	if err != nil {
		state.LastErr = err.Error()
	}
	s.mu.Unlock()
}

// States returns a snapshot of every task's last run, ordered as configured.
func (s *Scheduler) States() []TaskState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskState, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, *s.states[task.Name])
	}
	return out
}
