package books

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/microfin/internal/errs"
	"github.com/tinoosan/microfin/internal/ledger"
)

// gatedStore holds every Save until release is closed.
type gatedStore struct {
	release chan struct{}
	mu      sync.Mutex
	saves   int
}

func (g *gatedStore) Load(context.Context, string) ([]byte, error) { return nil, errs.ErrNotFound }

func (g *gatedStore) Save(_ context.Context, _ string, _ []byte) error {
	<-g.release
	g.mu.Lock()
	g.saves++
	g.mu.Unlock()
	return nil
}

func TestSyncerFlush_ReturnsWhenContextEnds(t *testing.T) {
	store := &gatedStore{release: make(chan struct{})}
	s := newSyncer(store, "test", testLogger(), func() time.Time { return fixedNow })
	s.submit(ledger.State{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.flush(ctx), context.DeadlineExceeded)

	// an abandoned flush leaves no waiter behind: the next one still completes
	close(store.release)
	require.NoError(t, s.flush(context.Background()))
	s.close()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.saves)
}

func TestSyncerFlush_AlreadyCancelled(t *testing.T) {
	store := &gatedStore{release: make(chan struct{})}
	s := newSyncer(store, "test", testLogger(), func() time.Time { return fixedNow })
	s.submit(ledger.State{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.flush(ctx), context.Canceled)

	close(store.release)
	s.close()
}
