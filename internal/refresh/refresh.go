// Package refresh runs the periodic work: refetching interviews and
// overlays on the configured schedule, and the once-a-minute clock tick
// that moves the current-time indicator.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "interviewcal/internal/log"
	"interviewcal/internal/store"
)

// TickSpec drives the current-time indicator.
const TickSpec = "@every 1m"

// Job is a named unit of scheduled work.
type Job struct {
	Name string
	Spec string
	Run  func(context.Context) error
}

// Scheduler wraps a cron runner. Overlapping runs of one job are skipped.
type Scheduler struct {
	ctx   context.Context
	cron  *cron.Cron
	clock func() time.Time
	now   *store.Store[time.Time]

	mu   sync.Mutex
	jobs []Job
}

type Option func(*Scheduler)

func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// New builds a stopped scheduler. Jobs receive ctx.
func New(ctx context.Context, loc *time.Location, opts ...Option) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{ctx: ctx, clock: time.Now}
	for _, o := range opts {
		o(s)
	}
	logger := cronLogger{}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	s.now = store.New(s.clock())
	return s
}

// Add registers job. An invalid spec is returned as an error.
func (s *Scheduler) Add(job Job) error {
	_, err := s.cron.AddFunc(job.Spec, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("refresh: schedule %s %q: %w", job.Name, job.Spec, err)
	}
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	appLog.Info("job scheduled", "job", job.Name, "spec", job.Spec)
	return nil
}

// RunAll runs every registered job once, in registration order.
func (s *Scheduler) RunAll() {
	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()
	for _, j := range jobs {
		s.run(j)
	}
}

func (s *Scheduler) run(job Job) {
	started := s.clock()
	if err := job.Run(s.ctx); err != nil {
		appLog.Error("job failed", err, "job", job.Name)
		return
	}
	appLog.Debug("job done", "job", job.Name, "elapsed", s.clock().Sub(started))
}

// Now is the time of the last tick.
func (s *Scheduler) Now() time.Time { return s.now.Get() }

// OnTick registers fn for every clock tick.
func (s *Scheduler) OnTick(fn func(time.Time)) (unsubscribe func()) {
	return s.now.Subscribe(fn)
}

func (s *Scheduler) tick() {
	s.now.Set(s.clock())
}

// Start registers the clock tick and starts the runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(TickSpec, s.tick); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop stops the runner; the returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// cronLogger routes cron's own messages to the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}
