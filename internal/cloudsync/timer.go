package cloudsync

import (
	"sync"
	"time"
)

// Timer is the cancellable debounce timer capability. Schedule replaces
// any previously scheduled call, so at most one callback is pending at a
// time.
type Timer interface {
	Schedule(d time.Duration, fn func())
	Cancel()
}

// WallTimer is the production Timer backed by the runtime clock. Tests
// substitute a fake that fires synchronously.
type WallTimer struct {
	mu sync.Mutex
	t  *time.Timer
}

func NewWallTimer() *WallTimer {
	return &WallTimer{}
}

func (w *WallTimer) Schedule(d time.Duration, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.t != nil {
		w.t.Stop()
	}
	w.t = time.AfterFunc(d, fn)
}

func (w *WallTimer) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.t != nil {
		w.t.Stop()
		w.t = nil
	}
}
