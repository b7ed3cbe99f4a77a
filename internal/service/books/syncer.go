package books

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tinoosan/microfin/internal/ledger"
	"github.com/tinoosan/microfin/internal/snapshot"
)

const saveTimeout = 15 * time.Second

// syncer writes snapshots in the background. Only the newest pending state is kept:
// a burst of mutations collapses into one write. Failures are logged and counted and
// never touch the in-memory state; the next mutation tries again.
type syncer struct {
	store snapshot.Store
	key   string
	log   *slog.Logger
	now   func() time.Time

	mu      sync.Mutex
	cond    *sync.Cond
	pending *ledger.State
	busy    bool
	closed  bool
	lastErr error
	done    chan struct{}
}

func newSyncer(store snapshot.Store, key string, log *slog.Logger, now func() time.Time) *syncer {
	s := &syncer{store: store, key: key, log: log, now: now, done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

func (s *syncer) submit(st ledger.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Warn("snapshot dropped: persister closed", "key", s.key)
		return
	}
	s.pending = &st
	s.cond.Broadcast()
}

func (s *syncer) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for s.pending == nil && !s.closed {
			s.cond.Wait()
		}
		if s.pending == nil {
			s.mu.Unlock()
			return
		}
		st := *s.pending
		s.pending = nil
		s.busy = true
		s.mu.Unlock()

		err := s.save(st)

		s.mu.Lock()
		s.busy = false
		s.lastErr = err
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

func (s *syncer) save(st ledger.State) error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	start := time.Now()
	err := snapshot.Save(ctx, s.store, s.key, st, s.now())
	persistDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		persistTotal.WithLabelValues("error").Inc()
		s.log.Error("persist failed; in-memory state kept", "key", s.key, "err", err)
		return err
	}
	persistTotal.WithLabelValues("ok").Inc()
	s.log.Debug("snapshot persisted", "key", s.key, "transactions", len(st.Transactions))
	return nil
}

// flush blocks until nothing is pending or in flight, or ctx ends.
func (s *syncer) flush(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for (s.pending != nil || s.busy) && !s.closedAndDrained() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.cond.Wait()
	}
	return s.lastErr
}

// closedAndDrained reports whether run has exited. Caller holds mu.
func (s *syncer) closedAndDrained() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *syncer) close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
}
