package performance

import (
	"context"
	"errors"
	"sync"

	"github.com/kendall-kelly/vendor-performance-api/models"
)

// memStore is an in-memory Store. WithVendorLock works on a copy of the state
// and only publishes it when fn succeeds.
type memStore struct {
	mu      *sync.Mutex
	state   *memState
	failOn  string
	loadHit func()
}

type memState struct {
	vendors map[uint]models.Vendor
	orders  map[uint]History
	logs    []models.PerformanceLog
}

func newMemStore() *memStore {
	return &memStore{
		mu: &sync.Mutex{},
		state: &memState{
			vendors: make(map[uint]models.Vendor),
			orders:  make(map[uint]History),
		},
	}
}

var errInjected = errors.New("store unavailable")

func (s *memStore) clone() *memState {
	c := &memState{
		vendors: make(map[uint]models.Vendor, len(s.state.vendors)),
		orders:  make(map[uint]History, len(s.state.orders)),
		logs:    append([]models.PerformanceLog(nil), s.state.logs...),
	}
	for k, v := range s.state.vendors {
		c.vendors[k] = v
	}
	for k, v := range s.state.orders {
		c.orders[k] = append(History(nil), v...)
	}
	return c
}

func (s *memStore) WithVendorLock(ctx context.Context, vendorID uint, fn func(tx Store) error) error {
	if s.failOn == "lock" {
		return errInjected
	}

	s.mu.Lock()
	if _, ok := s.state.vendors[vendorID]; !ok {
		s.mu.Unlock()
		return ErrVendorNotFound
	}
	tx := &memStore{mu: &sync.Mutex{}, state: s.clone(), failOn: s.failOn, loadHit: s.loadHit}
	base := len(tx.state.logs)
	s.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.vendors[vendorID] = tx.state.vendors[vendorID]
	s.state.logs = append(s.state.logs, tx.state.logs[base:]...)
	return nil
}

func (s *memStore) LoadVendor(ctx context.Context, vendorID uint) (*models.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state.vendors[vendorID]
	if !ok {
		return nil, ErrVendorNotFound
	}
	return &v, nil
}

func (s *memStore) LoadHistory(ctx context.Context, vendorID uint) (History, error) {
	if s.loadHit != nil {
		s.loadHit()
	}
	if s.failOn == "history" {
		return nil, errInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(History(nil), s.state.orders[vendorID]...), nil
}

func (s *memStore) SaveVendorMetrics(ctx context.Context, vendorID uint, m Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.state.vendors[vendorID]
	m.ApplyTo(&v, AllFields)
	s.state.vendors[vendorID] = v
	return nil
}

func (s *memStore) AppendPerformanceLog(ctx context.Context, log *models.PerformanceLog) error {
	if s.failOn == "log" {
		return errInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	log.ID = uint(len(s.state.logs) + 1)
	s.state.logs = append(s.state.logs, *log)
	return nil
}

func (s *memStore) ListVendorIDs(ctx context.Context) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, 0, len(s.state.vendors))
	for id := range s.state.vendors {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *memStore) vendor(id uint) models.Vendor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.vendors[id]
}

func (s *memStore) logsFor(id uint) []models.PerformanceLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PerformanceLog
	for _, l := range s.state.logs {
		if l.VendorID == id {
			out = append(out, l)
		}
	}
	return out
}
