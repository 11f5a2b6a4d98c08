package session

import "sync"

// CardLocks serializes scheduling updates per card id. Sessions over
// the same deck share one instance so two machines never run a
// read-modify-write on the same card's review state at once.
type CardLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewCardLocks() *CardLocks {
	return &CardLocks{locks: make(map[int64]*sync.Mutex)}
}

// Acquire locks the mutex for cardID and returns it for unlocking.
func (l *CardLocks) Acquire(cardID int64) *sync.Mutex {
	l.mu.Lock()
	cm, ok := l.locks[cardID]
	if !ok {
		cm = &sync.Mutex{}
		l.locks[cardID] = cm
	}
	l.mu.Unlock()

	cm.Lock()
	return cm
}
