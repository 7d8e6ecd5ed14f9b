// Package housekeeping periodically removes expired login sessions and abandoned
// sign in flows.
package housekeeping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const taskTimeout = time.Minute

// Task removes stale records and reports how many were removed
type Task struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron   *cron.Cron
	tasks  []Task
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
}

// New validates schedule (standard cron or descriptors such as "@every 10m")
func New(schedule string, logger zerolog.Logger, tasks ...Task) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		tasks:  tasks,
		logger: logger.With().Str("component", "housekeeping").Logger(),
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("[housekeeping New] schedule %q: %w", schedule, err)
	}
	return s, nil
}

// RunOnce runs every task now. A failing task does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) map[string]int {
	removed := make(map[string]int, len(s.tasks))
	for _, task := range s.tasks {
		taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
		n, err := task.Run(taskCtx)
		cancel()
		if err != nil {
			s.logger.Error().Err(err).Str("task", task.Name).Msg("Housekeeping task failed")
			continue
		}
		removed[task.Name] = n
		if n > 0 {
			s.logger.Info().Str("task", task.Name).Int("removed", n).Msg("Housekeeping")
		}
	}
	return removed
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
}

// Stop stops scheduling and waits for a running pass to finish or ctx to end
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
