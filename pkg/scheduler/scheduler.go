package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/kotrzina/skolmaten/pkg/config"
	"github.com/kotrzina/skolmaten/pkg/fetcher"
	"github.com/kotrzina/skolmaten/pkg/prometheus"
	"github.com/kotrzina/skolmaten/pkg/store"
	"github.com/sirupsen/logrus"
)

const (
	// pause after every source, the upstream site is shared by all sources
	sourceDelay = 2 * time.Second

	// pause after a cycle failed unexpectedly
	errorBackoff = 60 * time.Second
)

type MenuFetcher interface {
	Fetch(ctx context.Context, slug string, includeNextWeek bool) (fetcher.Result, error)
}

type Publisher interface {
	SetState(ctx context.Context, entityID, state string, attributes map[string]interface{}) error
}

// Status describes the scheduler for the status api
type Status struct {
	Sources       []config.Source `json:"sources"`
	Interval      string          `json:"interval"`
	Weeks         int             `json:"weeks"`
	Cycles        int             `json:"cycles"`
	LastCycleID   string          `json:"last_cycle_id"`
	LastCycleAt   string          `json:"last_cycle_at"`
	LastCycleTook string          `json:"last_cycle_took"`
}

// Scheduler periodically fetches the menu of every configured source
// and publishes it as a sensor. Sources are processed one by one.
type Scheduler struct {
	fetcher   MenuFetcher
	publisher Publisher
	store     store.Storage
	monitor   *prometheus.Monitor
	logger    *logrus.Logger

	sources  []config.Source
	interval time.Duration
	weeks    int
	nextWeek bool

	sleep func(ctx context.Context, d time.Duration) bool
	now   func() time.Time

	mtx         sync.RWMutex
	cycles      int
	lastCycleID string
	lastCycleAt time.Time
	lastTook    time.Duration
}

func New(
	conf *config.Config,
	fetcher MenuFetcher,
	publisher Publisher,
	storage store.Storage,
	monitor *prometheus.Monitor,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		fetcher:   fetcher,
		publisher: publisher,
		store:     storage,
		monitor:   monitor,
		logger:    logger,

		sources:  conf.Sources,
		interval: conf.UpdateInterval,
		weeks:    conf.Weeks,
		nextWeek: conf.IncludeNextWeek(),

		sleep: sleep,
		now:   time.Now,
	}
}

// Run loops over update cycles until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.sources) == 0 {
		s.logger.Error("No schools configured, nothing to update")
		<-ctx.Done()
		return nil
	}

	s.logger.Infof("Starting updates of %d schools every %s", len(s.sources), s.formatDuration(s.interval))

	for ctx.Err() == nil {
		if err := s.RunCycle(ctx); err != nil {
			s.logger.Errorf("Update cycle failed: %v", err)
			s.logger.Infof("Retrying in %s", s.formatDuration(errorBackoff))
			s.sleep(ctx, errorBackoff)
			continue
		}

		s.logger.Infof("Next update in %s", s.formatDuration(s.interval))
		s.sleep(ctx, s.interval)
	}

	s.logger.Info("Scheduler stopped")
	return nil
}

// RunCycle updates every source once. A source failure is published
// as a degraded sensor and never stops the cycle.
func (s *Scheduler) RunCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in update cycle: %v", r)
		}
	}()

	cycleID := uuid.NewString()
	started := s.now()
	log := s.logger.WithField("cycle", cycleID)
	log.Infof("Updating menus of %d schools", len(s.sources))

	for _, source := range s.sources {
		if ctx.Err() != nil {
			log.Info("Shutdown requested, cycle interrupted")
			return nil
		}

		s.updateSource(ctx, log, source)
		s.sleep(ctx, sourceDelay)
	}

	took := s.now().Sub(started)
	s.monitor.CycleDuration.Observe(took.Seconds())
	s.monitor.CyclesTotal.Inc()

	s.mtx.Lock()
	s.cycles++
	s.lastCycleID = cycleID
	s.lastCycleAt = started
	s.lastTook = took
	s.mtx.Unlock()

	log.WithField("duration", took.String()).Info("Update cycle finished")
	return nil
}

// Status returns a copy of the scheduler state
func (s *Scheduler) Status() Status {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	status := Status{
		Sources:  append([]config.Source{}, s.sources...),
		Interval: s.interval.String(),
		Weeks:    s.weeks,
		Cycles:   s.cycles,
	}
	if s.cycles > 0 {
		status.LastCycleID = s.lastCycleID
		status.LastCycleAt = s.lastCycleAt.Format(time.RFC3339)
		status.LastCycleTook = s.lastTook.String()
	}
	return status
}

func (s *Scheduler) formatDuration(d time.Duration) string {
	return durafmt.Parse(d.Round(time.Second)).LimitFirstN(2).String()
}

// sleep waits for d and reports whether it was not interrupted by ctx
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
