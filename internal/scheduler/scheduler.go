// Package scheduler fires the orchestrator on a fixed cadence, guaranteeing
// non-overlapping ticks via a distributed etcd lock (or a local mutex when
// no etcd endpoints are configured) and exposing an overdue flag when a
// tick could not start on schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vigilrun/vigil/internal/etcd"
	"github.com/vigilrun/vigil/internal/logger"
)

const (
	DefaultInterval = 5 * time.Minute
	lockKey         = "/vigil/scheduler/lock"
	sessionTTL      = 30
)

// TickFunc runs one orchestrator pass. A non-nil error is logged; it never
// stops the scheduler.
type TickFunc func(ctx context.Context) error

// Scheduler fires TickFunc on a fixed interval, serialized by a lock so
// that two instances (or an overlapping slow tick) never run concurrently.
type Scheduler struct {
	interval time.Duration
	etcd     *etcd.Client
	localMu  sync.Mutex
	tick     TickFunc

	stopChan chan struct{}
	doneChan chan struct{}

	overdue       atomic.Bool
	nextScheduled atomic.Value // time.Time
}

// New creates a Scheduler. When etcdClient is nil, non-overlap is enforced
// with a process-local mutex, which is sufficient for a single instance.
func New(etcdClient *etcd.Client, interval time.Duration, tick TickFunc) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		interval: interval,
		etcd:     etcdClient,
		tick:     tick,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	s.nextScheduled.Store(time.Now().Add(interval))
	return s
}

// Overdue reports whether the most recently scheduled tick missed its
// scheduled time because the lock was still held by a prior tick.
func (s *Scheduler) Overdue() bool {
	return s.overdue.Load()
}

// Start begins the ticking loop. It returns immediately; call Stop to
// terminate it.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

// Stop terminates the loop and waits for the in-flight tick, if any, to
// finish.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	<-s.doneChan
}

func (s *Scheduler) loop(ctx context.Context) {
	// Each tick runs on its own goroutine, so a tick that fires while a prior
	// one still holds the lock reaches runTick and is skipped there; inFlight
	// lets the loop wait for running ticks before it reports done.
	var inFlight sync.WaitGroup
	defer close(s.doneChan)
	defer inFlight.Wait()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			scheduledAt, _ := s.nextScheduled.Load().(time.Time)
			s.nextScheduled.Store(time.Now().Add(s.interval))
			inFlight.Add(1)
			go func() {
				defer inFlight.Done()
				s.runTick(ctx, scheduledAt)
			}()
		}
	}
}

// runTick acquires the non-overlap lock, runs the tick and releases it.
// If the lock cannot be acquired promptly (a prior tick overran into this
// one), the overdue flag is raised and the tick is skipped entirely rather
// than queued, preserving "no horizontal concurrency between runs".
func (s *Scheduler) runTick(ctx context.Context, scheduledAt time.Time) {
	log := logger.GetLogger(ctx)

	release, acquired, err := s.acquireLock(ctx)
	if err != nil {
		log.Error("scheduler lock acquisition failed", zap.Error(err))
		return
	}
	if !acquired {
		s.overdue.Store(true)
		log.Warn("tick skipped: previous tick still holds the lock")
		return
	}
	defer release()

	s.overdue.Store(time.Now().Sub(scheduledAt) > s.interval)

	if err := s.tick(ctx); err != nil {
		log.Error("orchestrator tick failed", zap.Error(err))
	}
}

// TriggerNow runs a single out-of-schedule tick through the same
// non-overlap lock used by the ticking loop, so a manually triggered tick
// can never run concurrently with a scheduled one (or another manual
// trigger). It returns ran=false, with no error, if the lock is currently
// held by another tick; the caller should treat that as "try again later",
// not as a failure.
func (s *Scheduler) TriggerNow(ctx context.Context) (ran bool, err error) {
	release, acquired, err := s.acquireLock(ctx)
	if err != nil {
		return false, err
	}
	if !acquired {
		return false, nil
	}
	defer release()

	return true, s.tick(ctx)
}

// acquireLock returns a release function and whether the lock was
// acquired without blocking. With an etcd client configured, it uses a
// session-scoped distributed mutex; otherwise, a process-local mutex taken
// with TryLock, so a held lock reports acquired=false instead of blocking.
func (s *Scheduler) acquireLock(ctx context.Context) (release func(), acquired bool, err error) {
	if s.etcd == nil {
		if !s.localMu.TryLock() {
			return nil, false, nil
		}
		return s.localMu.Unlock, true, nil
	}

	session, err := s.etcd.NewSession(ctx, sessionTTL)
	if err != nil {
		return nil, false, fmt.Errorf("create etcd session: %w", err)
	}

	mutex := s.etcd.NewMutex(session, lockKey)
	lockCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := mutex.TryLock(lockCtx); err != nil {
		_ = session.Close()
		return nil, false, nil
	}

	release = func() {
		_ = mutex.Unlock(context.Background())
		_ = session.Close()
	}
	return release, true, nil
}
