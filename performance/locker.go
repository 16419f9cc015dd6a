package performance

import "sync"

// VendorLocker hands out one mutex per vendor so recomputations for the same
// vendor run one at a time while different vendors proceed in parallel.
type VendorLocker struct {
	mu    sync.Mutex
	locks map[uint]*vendorLock
}

type vendorLock struct {
	mu   sync.Mutex
	refs int
}

// NewVendorLocker creates an empty lock table.
func NewVendorLocker() *VendorLocker {
	return &VendorLocker{locks: make(map[uint]*vendorLock)}
}

// DefaultLocker is shared by every Engine that is not given its own locker.
var DefaultLocker = NewVendorLocker()

// Lock blocks until the vendor's lock is held and returns the release func.
func (l *VendorLocker) Lock(vendorID uint) func() {
	l.mu.Lock()
	vl, ok := l.locks[vendorID]
	if !ok {
		vl = &vendorLock{}
		l.locks[vendorID] = vl
	}
	vl.refs++
	l.mu.Unlock()

	vl.mu.Lock()
	return func() {
		vl.mu.Unlock()

		l.mu.Lock()
		vl.refs--
		if vl.refs == 0 {
			delete(l.locks, vendorID)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of vendors currently locked or waited on.
func (l *VendorLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
