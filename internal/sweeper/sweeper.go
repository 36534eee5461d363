// Package sweeper closes sessions whose process is gone: their login record
// is rewritten as DEAD_PROCESS and the logout is appended to the history log.
package sweeper

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"logindb/internal/config"
	"logindb/internal/record"
	"logindb/internal/store"
	"logindb/internal/wtmp"
)

const DefaultInterval = time.Minute

type Sweeper struct {
	store    *store.Store
	history  *wtmp.Appender
	interval time.Duration
	log      *log.Logger

	alive func(pid int32) bool
	now   func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(cfg config.Config, s *store.Store, interval time.Duration) (*Sweeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: sweep interval must be positive", config.ErrInvalidConfig)
	}

	var history *wtmp.Appender
	if cfg.WtmpPath != "" {
		a, err := wtmp.NewAppender(cfg)
		if err != nil {
			return nil, err
		}
		history = a
	}

	return &Sweeper{
		store:    s,
		history:  history,
		interval: interval,
		log:      cfg.Logger,
		alive:    processAlive,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}, nil
}

func (sw *Sweeper) Start() {
	sw.wg.Add(1)
	go sw.run()
}

func (sw *Sweeper) run() {
	defer sw.wg.Done()

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := sw.SweepOnce()
			if err != nil {
				sw.log.Printf("[Sweeper] sweep failed: %v", err)
				continue
			}
			if n > 0 {
				sw.log.Printf("[Sweeper] closed %d stale sessions", n)
			}
		case <-sw.stopCh:
			return
		}
	}
}

func (sw *Sweeper) Stop() {
	sw.stopOnce.Do(func() { close(sw.stopCh) })
	sw.wg.Wait()
}

/*
 * SweepOnce walks the store once and closes every LOGIN or USER session
 * whose pid no longer exists. It returns the number of sessions closed.
 * Candidates are collected first; upserting moves the store's cursor.
 * A slot is only rewritten if it still holds the same session when the
 * write lock is taken, so a login that reused the slot in between survives.
 */
func (sw *Sweeper) SweepOnce() (int, error) {
	if err := sw.store.Rewind(sw.store.Width()); err != nil {
		return 0, err
	}

	var stale []*record.Record
	for {
		r, err := sw.store.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if (r.Kind == record.LoginProcess || r.Kind == record.UserProcess) && !sw.alive(r.PID) {
			stale = append(stale, r)
		}
	}

	closed := 0
	for _, r := range stale {
		dead := *r
		dead.Kind = record.DeadProcess
		dead.User = [record.NAME_SIZE]byte{}
		dead.Host = [record.HOST_SIZE]byte{}
		dead.SetTimestamp(sw.now())

		err := sw.store.UpsertIf(&dead, sameSession(r))
		if errors.Is(err, store.ErrStale) || errors.Is(err, store.ErrNotFound) {
			sw.log.Printf("[Sweeper] %s: session changed, left alone", r.LineString())
			continue
		}
		if err != nil {
			return closed, fmt.Errorf("close session on %s: %w", r.LineString(), err)
		}
		closed++

		if sw.history == nil {
			continue
		}
		if err := sw.history.Append(&dead); err != nil {
			sw.log.Printf("[Sweeper] %s: history append failed: %v", r.LineString(), err)
		}
	}
	return closed, nil
}

func sameSession(seen *record.Record) func(*record.Record) bool {
	return func(cur *record.Record) bool {
		return cur.Kind == seen.Kind && cur.PID == seen.PID
	}
}

// processAlive reports whether pid exists. A process owned by someone else
// (EPERM) is alive.
func processAlive(pid int32) bool {
	if pid <= 0 {
		return true
	}
	err := unix.Kill(int(pid), 0)
	return !errors.Is(err, unix.ESRCH)
}
