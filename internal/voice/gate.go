package voice

// Gate is the exclusive speech-output capability: a single-slot lock held
// for the duration of one utterance. A speak request that finds the slot
// occupied is dropped, not queued, so overlapping audio is never produced.
type Gate struct {
	slot chan struct{}
}

func NewGate() *Gate {
	return &Gate{slot: make(chan struct{}, 1)}
}

// TryAcquire claims the capability without blocking. It returns false when
// another utterance is already in flight.
func (g *Gate) TryAcquire() bool {
	select {
	case g.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns the capability. Releasing an unheld gate is a no-op, so a
// deferred Release is safe on every exit path.
func (g *Gate) Release() {
	select {
	case <-g.slot:
	default:
	}
}

// Held reports whether an utterance is currently in flight.
func (g *Gate) Held() bool {
	return len(g.slot) == 1
}
