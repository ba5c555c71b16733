// Package scheduler runs the recurring chase loop.
//
// A cron wrapper drives the Runner, which pulls items still awaiting a
// response, runs the agent fleet over them, and delivers whatever the
// policies composed.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron runner whose jobs survive panics in user tasks.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates a scheduler and starts its cron loop.
func NewScheduler() *Scheduler {
	// Standard 5-field cron parser (min, hour, dom, month, dow) plus @every
	// descriptors for sub-minute cadences.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cronLogger{})),
	)
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules task under a cron spec.
func (s *Scheduler) AddJob(spec string, task func()) error {
	_, err := s.cron.AddFunc(spec, task)
	return err
}

// AddEvery schedules a task at a fixed interval.
func (s *Scheduler) AddEvery(interval time.Duration, task func()) error {
	return s.AddJob(fmt.Sprintf("@every %s", interval), task)
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// cronLogger routes cron's internal output through slog so a panicking
// job is reported instead of taking down the process.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
