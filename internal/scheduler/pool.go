package scheduler

import (
	"fmt"

	"github.com/orneryd/cybolt/internal/boltclient"
)

// SessionPool owns exactly W Sessions, indexed by worker slot. Slots are
// never shared across goroutines: the Scheduler hands each worker task its
// own slot index and nothing else touches that Session concurrently.
type SessionPool struct {
	cfg   boltclient.Config
	slots []*boltclient.Session
}

// NewSessionPool connects W sessions up front. A connect failure for any
// slot is fatal at pool construction time: the import aborts rather than
// run with fewer workers than requested.
func NewSessionPool(cfg boltclient.Config, workers int) (*SessionPool, error) {
	slots := make([]*boltclient.Session, workers)
	for i := 0; i < workers; i++ {
		s, err := boltclient.Connect(cfg)
		if err != nil {
			for j := 0; j < i; j++ {
				slots[j].Destroy()
			}
			return nil, fmt.Errorf("connect worker slot %d: %w", i, err)
		}
		slots[i] = s
	}
	return &SessionPool{cfg: cfg, slots: slots}, nil
}

// Lease returns the Session bound to slot, callable only from the worker
// running on that slot.
func (p *SessionPool) Lease(slot int) *boltclient.Session {
	return p.slots[slot]
}

// Repair destroys and replaces a bad session. Called by the worker task
// itself after an attempt that left the session bad, never concurrently
// with Lease for the same slot.
func (p *SessionPool) Repair(slot int) error {
	p.slots[slot].Destroy()
	s, err := boltclient.Connect(p.cfg)
	if err != nil {
		return fmt.Errorf("repair worker slot %d: %w", slot, err)
	}
	p.slots[slot] = s
	return nil
}

// Close tears down every session, for use at the end of import.
func (p *SessionPool) Close() {
	for _, s := range p.slots {
		if s != nil {
			s.Destroy()
		}
	}
}

// Size returns W, the number of worker slots.
func (p *SessionPool) Size() int { return len(p.slots) }
