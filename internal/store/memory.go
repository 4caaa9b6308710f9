package store

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bid-sniper/internal/model"
)

// Memory is a process-local BidStore. Records are stored encoded so callers
// can never mutate a stored record through a shared pointer.
type Memory struct {
	mu   sync.RWMutex
	bids map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{bids: make(map[string][]byte)}
}

// Put implements BidStore.
func (m *Memory) Put(_ context.Context, bid *model.BidRecord) error {
	if err := validateBid(bid); err != nil {
		return err
	}
	data, err := encodeBid(bid)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bids[bid.ID]; ok {
		return eris.Wrapf(ErrBidExists, "store: put %s", bid.ID)
	}
	m.bids[bid.ID] = data
	return nil
}

// Get implements BidStore.
func (m *Memory) Get(_ context.Context, id string) (*model.BidRecord, error) {
	m.mu.RLock()
	data, ok := m.bids[id]
	m.mu.RUnlock()
	if !ok {
		return nil, eris.Wrapf(ErrBidNotFound, "store: get %s", id)
	}
	return decodeBid(data)
}

// Len returns the number of stored bids.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bids)
}

// Migrate implements BidStore. It is a no-op.
func (m *Memory) Migrate(context.Context) error { return nil }

// Close implements BidStore. It is a no-op.
func (m *Memory) Close() error { return nil }
