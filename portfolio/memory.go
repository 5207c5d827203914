package portfolio

import (
	"context"
	"errors"
	"sync"

	"github.com/montewalk/quant/trading"
)

// MemStore keeps the portfolio in memory. Used by tests and by
// ephemeral runs that do not want a database on disk.
type MemStore struct {
	mu sync.Mutex
	pf *trading.Portfolio

	// FailSaves makes every Save fail; lets tests exercise the
	// ledger's rollback path.
	FailSaves bool
}

var errSaveFailed = errors.New("memstore: save failed")

func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) Load(ctx context.Context) (*trading.Portfolio, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pf == nil {
		return nil, false, nil
	}
	return m.pf.Clone(), true, nil
}

func (m *MemStore) Save(ctx context.Context, pf *trading.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSaves {
		return errSaveFailed
	}
	m.pf = pf.Clone()
	return nil
}

func (m *MemStore) Close() error { return nil }
