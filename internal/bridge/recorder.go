package bridge

import "sync"

// Recorder is a Bridge test double that records every notification.
type Recorder struct {
	mu          sync.Mutex
	pinCalls    []bool
	transpCalls []float64
	closeCalls  int
}

func (r *Recorder) TogglePin(pinned bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pinCalls = append(r.pinCalls, pinned)
}

func (r *Recorder) SetTransparency(level float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transpCalls = append(r.transpCalls, level)
}

func (r *Recorder) CloseApp() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeCalls++
}

// PinCalls returns the recorded pin states in call order.
func (r *Recorder) PinCalls() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.pinCalls...)
}

// TransparencyCalls returns the recorded levels in call order.
func (r *Recorder) TransparencyCalls() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.transpCalls...)
}

// CloseCalls returns how many times CloseApp was invoked.
func (r *Recorder) CloseCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeCalls
}
