package sim

import "sync"

// MainThread stands in for the host's UI looper. Post queues callbacks
// from any goroutine; Flush runs them in order on the calling goroutine.
// Register Post with platform.RegisterDispatch.
type MainThread struct {
	mu    sync.Mutex
	queue []func()
}

// Post queues callback.
func (m *MainThread) Post(callback func()) {
	m.mu.Lock()
	m.queue = append(m.queue, callback)
	m.mu.Unlock()
}

// Pending returns the number of queued callbacks.
func (m *MainThread) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Flush runs queued callbacks until the queue is empty, including those
// posted by the callbacks themselves, and returns how many ran.
func (m *MainThread) Flush() int {
	ran := 0
	for {
		m.mu.Lock()
		batch := m.queue
		m.queue = nil
		m.mu.Unlock()
		if len(batch) == 0 {
			return ran
		}
		for _, cb := range batch {
			cb()
		}
		ran += len(batch)
	}
}
