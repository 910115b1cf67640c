package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

// entry is one registered job. running keeps a slow run from overlapping
// the next tick.
type entry struct {
	id      cron.EntryID
	job     Job
	spec    string
	running atomic.Bool
}

// CronScheduler runs named jobs on cron specs. Jobs are keyed by name, so
// registering a name again replaces its schedule.
type CronScheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
	ctx     context.Context
}

// NewCronScheduler accepts five-field specs as well as descriptors such as
// "@hourly" and "@every 1h".
func NewCronScheduler(logger *zap.Logger) *CronScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &CronScheduler{
		cron:    cron.New(cron.WithParser(parser)),
		logger:  logger,
		entries: make(map[string]*entry),
		ctx:     context.Background(),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	e := &entry{job: job, spec: spec}
	id, err := c.cron.AddFunc(spec, func() { c.run(e) })
	if err != nil {
		c.logger.Error("schedule job failed", zap.String("job", job.Name()), zap.String("spec", spec), zap.Error(err))
		return err
	}
	e.id = id

	c.mu.Lock()
	if prev, ok := c.entries[job.Name()]; ok {
		c.cron.Remove(prev.id)
	}
	c.entries[job.Name()] = e
	c.mu.Unlock()

	c.logger.Info("job scheduled", zap.String("job", job.Name()), zap.String("spec", spec))
	return nil
}

// Remove unschedules the named job. A run already in progress finishes.
func (c *CronScheduler) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok {
		return false
	}
	c.cron.Remove(e.id)
	delete(c.entries, name)
	return true
}

// Next reports when the named job fires next. It is zero until Start.
func (c *CronScheduler) Next(name string) (time.Time, bool) {
	c.mu.Lock()
	e, ok := c.entries[name]
	c.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return c.cron.Entry(e.id).Next, true
}

// Start hands ctx to every run and starts firing jobs.
func (c *CronScheduler) Start(ctx context.Context) {
	if ctx != nil {
		c.mu.Lock()
		c.ctx = ctx
		c.mu.Unlock()
	}
	c.cron.Start()
}

// Stop waits for running jobs to finish.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) run(e *entry) {
	logger := c.logger.With(zap.String("job", e.job.Name()))
	if !e.running.CompareAndSwap(false, true) {
		logger.Info("job skipped: still running")
		return
	}
	defer e.running.Store(false)

	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	start := time.Now()
	err := e.job.Run(ctx)
	fields := []zap.Field{zap.String("spec", e.spec), zap.Duration("duration", time.Since(start))}
	if err != nil {
		logger.Error("job failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Info("job finished", fields...)
}
