package mapview

import (
	"errors"
	"sync"
)

// fakeSurface records calls and flags any call made after Release.
type fakeSurface struct {
	mu sync.Mutex

	moves    []CameraPosition
	starts   int
	stops    int
	released bool
	misuse   bool

	failMove  error
	failStart error
	failStop  error
	panicOn   string
}

func (s *fakeSurface) call(name string, fail error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		s.misuse = true
	}
	if s.panicOn == name {
		panic("native " + name + " crashed")
	}
	return fail
}

func (s *fakeSurface) Move(c CameraPosition) error {
	if err := s.call("move", s.failMove); err != nil {
		return err
	}
	s.mu.Lock()
	s.moves = append(s.moves, c)
	s.mu.Unlock()
	return nil
}

func (s *fakeSurface) Start() error {
	if err := s.call("start", s.failStart); err != nil {
		return err
	}
	s.mu.Lock()
	s.starts++
	s.mu.Unlock()
	return nil
}

func (s *fakeSurface) Stop() error {
	if err := s.call("stop", s.failStop); err != nil {
		return err
	}
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	return nil
}

func (s *fakeSurface) Release() {
	s.mu.Lock()
	s.released = true
	s.mu.Unlock()
}

func (s *fakeSurface) snapshot() (starts, stops int, released, misuse bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.stops, s.released, s.misuse
}

// allocatorFor hands out surface, or fails with err.
func allocatorFor(surface *fakeSurface, err error) (SurfaceAllocator, *int) {
	calls := 0
	return func(ctx SurfaceContext, viewID int64) (Surface, error) {
		calls++
		if err != nil {
			return nil, err
		}
		return surface, nil
	}, &calls
}

type notification struct {
	method  string
	message string
}

// recordingNotifier captures notifications in order.
type recordingNotifier struct {
	mu     sync.Mutex
	sent   []notification
	closed bool
	fail   error
}

func (n *recordingNotifier) Ready() error {
	return n.add(notification{method: MethodMapReady})
}

func (n *recordingNotifier) Error(message string) error {
	return n.add(notification{method: MethodMapError, message: message})
}

func (n *recordingNotifier) add(note notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return errors.New("notifier closed")
	}
	n.sent = append(n.sent, note)
	return n.fail
}

func (n *recordingNotifier) Close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
}

func (n *recordingNotifier) notes() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification, len(n.sent))
	copy(out, n.sent)
	return out
}
