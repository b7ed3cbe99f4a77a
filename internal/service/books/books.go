// Package books is the application context of the bookkeeping service. A Books value
// owns the record store, applies every mutation under one lock, derives fund state on
// demand and hands snapshots to a background persister.
package books

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tinoosan/microfin/internal/errs"
	"github.com/tinoosan/microfin/internal/ident"
	"github.com/tinoosan/microfin/internal/ledger"
	"github.com/tinoosan/microfin/internal/snapshot"
)

// Options configures a Books. Store may be nil, in which case nothing is persisted.
type Options struct {
	Store    snapshot.Store
	Key      string
	Logger   *slog.Logger
	IDs      ident.Generator
	Clock    func() time.Time
	Currency string
}

// Result is what every command returns: the id of the record it created (if any),
// the id of the transaction it appended (if any) and a confirmation message.
type Result struct {
	ID            string `json:"id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	Message       string `json:"message"`
}

// Books serialises all mutations and fund-state derivations behind mu.
type Books struct {
	mu      sync.Mutex
	state   ledger.State
	version uint64

	// fund state memo, valid while cacheVersion == version
	cache        map[string]ledger.FundState
	cacheVersion uint64
	derivations  int

	ids      ident.Generator
	now      func() time.Time
	log      *slog.Logger
	currency string
	persist  *syncer
}

// New wraps an already loaded state.
func New(state ledger.State, opts Options) *Books {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.IDs == nil {
		opts.IDs = ident.UUID{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Currency == "" {
		opts.Currency = ledger.DefaultCurrency
	}
	if opts.Key == "" {
		opts.Key = snapshot.DefaultKey
	}
	st := state.Clone()
	st.Normalize()
	b := &Books{
		state:    st,
		cache:    map[string]ledger.FundState{},
		ids:      opts.IDs,
		now:      func() time.Time { return opts.Clock().UTC() },
		log:      opts.Logger.With("component", "books"),
		currency: opts.Currency,
	}
	if opts.Store != nil {
		b.persist = newSyncer(opts.Store, opts.Key, b.log, b.now)
	}
	return b
}

// Open loads the record store from opts.Store (falling back to the seed) and starts
// the persister.
func Open(ctx context.Context, opts Options) (*Books, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("books: store required: %w", errs.ErrInvalid)
	}
	if opts.Key == "" {
		opts.Key = snapshot.DefaultKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	st, err := snapshot.Load(ctx, opts.Store, opts.Key, logger)
	if err != nil {
		return nil, err
	}
	b := New(st, opts)
	b.log.Info("record store loaded",
		"key", opts.Key,
		"branches", len(st.Branches),
		"clients", len(st.Clients),
		"transactions", len(st.Transactions),
	)
	return b, nil
}

// Currency is the display currency amounts are formatted in.
func (b *Books) Currency() string { return b.currency }

// Version increments on every applied mutation.
func (b *Books) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// Snapshot returns a deep copy of the whole record store.
func (b *Books) Snapshot() ledger.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone()
}

// Flush waits until the latest state has been handed to the store and returns the
// error of that last write, if any.
func (b *Books) Flush(ctx context.Context) error {
	if b.persist == nil {
		return nil
	}
	return b.persist.flush(ctx)
}

// Close flushes and stops the persister. The Books must not be mutated afterwards.
func (b *Books) Close(ctx context.Context) error {
	if b.persist == nil {
		return nil
	}
	err := b.persist.flush(ctx)
	b.persist.close()
	return err
}

// Persist queues the current state for writing even if nothing changed.
func (b *Books) Persist() {
	if b.persist == nil {
		return
	}
	b.mu.Lock()
	st := b.state.Clone()
	b.mu.Unlock()
	b.persist.submit(st)
}

// mutation is the body of a command. It receives a working copy of the state and the
// resolved actor, and must finish every check before changing next.
type mutation func(next *ledger.State, actor ledger.UserAccount, now time.Time) (Result, error)

func (b *Books) apply(ctx context.Context, op string, actor *ledger.UserAccount, fn mutation) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	user, err := b.resolveActor(actor)
	if err != nil {
		mutationsTotal.WithLabelValues(op, "rejected").Inc()
		return Result{}, err
	}
	next := b.state
	res, err := fn(&next, user, b.now())
	if err != nil {
		mutationsTotal.WithLabelValues(op, "rejected").Inc()
		b.log.Debug("mutation rejected", "op", op, "actor", user.ID, "err", err)
		return Result{}, err
	}
	b.state = next
	b.version++
	mutationsTotal.WithLabelValues(op, "applied").Inc()
	b.log.Info("mutation applied", "op", op, "actor", user.ID, "id", res.ID, "tx_id", res.TransactionID, "version", b.version)
	if b.persist != nil {
		b.persist.submit(b.state.Clone())
	}
	return res, nil
}

// resolveActor re-reads the acting user from the store so a stale or forged role or
// branch on the caller's copy has no effect. Caller holds mu.
func (b *Books) resolveActor(actor *ledger.UserAccount) (ledger.UserAccount, error) {
	if actor == nil || actor.ID == "" {
		return ledger.UserAccount{}, fmt.Errorf("no acting user: %w", errs.ErrUnauthenticated)
	}
	u, ok := b.state.User(actor.ID)
	if !ok || u.BranchID == "" {
		return ledger.UserAccount{}, fmt.Errorf("unknown or unbound user %q: %w", actor.ID, errs.ErrUnauthenticated)
	}
	return u, nil
}
