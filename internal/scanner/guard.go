package scanner

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gcbaptista/go-vocab-highlighter/model"
)

// Guard is the processing flag shared by every scan: idle -> processing -> idle.
// Requests arriving while it is held are refused, not queued. A watchdog
// forces it back to idle once a pass holds it longer than the timeout.
type Guard struct {
	mu         sync.Mutex
	processing bool
	generation uint64
	kind       model.PassKind
	passID     string
	timer      clockwork.Timer

	clock     clockwork.Clock
	timeout   time.Duration
	onTimeout func(kind model.PassKind, passID string)
}

// NewGuard creates an idle guard. onTimeout runs outside the guard lock after
// the watchdog has released a stuck pass.
func NewGuard(clock clockwork.Clock, timeout time.Duration, onTimeout func(kind model.PassKind, passID string)) *Guard {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Guard{clock: clock, timeout: timeout, onTimeout: onTimeout}
}

// TryAcquire moves the guard to processing and arms the watchdog. The returned
// token identifies this hold; ok is false when the guard is already held.
func (g *Guard) TryAcquire(kind model.PassKind) (token uint64, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.processing {
		return 0, false
	}
	g.processing = true
	g.generation++
	g.kind = kind
	g.passID = ""
	token = g.generation

	if g.timeout > 0 {
		g.timer = g.clock.AfterFunc(g.timeout, func() { g.expire(token) })
	}
	return token, true
}

// Attach records the pass running under token.
func (g *Guard) Attach(token uint64, passID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.processing && g.generation == token {
		g.passID = passID
	}
}

// Holds reports whether token still owns the guard.
func (g *Guard) Holds(token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.processing && g.generation == token
}

// Finish runs fn and releases the guard atomically, provided token still owns
// it. It reports whether fn ran.
func (g *Guard) Finish(token uint64, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.processing || g.generation != token {
		return false
	}
	if fn != nil {
		fn()
	}
	g.releaseLocked()
	return true
}

// Release returns the guard to idle if token still owns it.
func (g *Guard) Release(token uint64) bool {
	return g.Finish(token, nil)
}

// ForceRelease returns the guard to idle whoever holds it, and reports the
// pass it interrupted.
func (g *Guard) ForceRelease() (kind model.PassKind, passID string, wasHeld bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.processing {
		return "", "", false
	}
	kind, passID = g.kind, g.passID
	g.releaseLocked()
	return kind, passID, true
}

// Processing reports whether a pass holds the guard.
func (g *Guard) Processing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.processing
}

func (g *Guard) releaseLocked() {
	g.processing = false
	g.passID = ""
	g.kind = ""
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (g *Guard) expire(token uint64) {
	g.mu.Lock()
	if !g.processing || g.generation != token {
		g.mu.Unlock()
		return
	}
	kind, passID := g.kind, g.passID
	g.timer = nil
	g.releaseLocked()
	g.mu.Unlock()

	if g.onTimeout != nil {
		g.onTimeout(kind, passID)
	}
}
