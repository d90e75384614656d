package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	bridgeerrors "github.com/go-drift/mapbridge/pkg/errors"
	"github.com/go-drift/mapbridge/pkg/log"
	"github.com/go-drift/mapbridge/pkg/mapkit"
	"github.com/go-drift/mapbridge/pkg/mapview"
)

// journal records engine and surface calls in the order they happen.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	j.events = append(j.events, fmt.Sprintf(format, args...))
	j.mu.Unlock()
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.events))
	copy(out, j.events)
	return out
}

func (j *journal) reset() {
	j.mu.Lock()
	j.events = nil
	j.mu.Unlock()
}

func (j *journal) count(event string) int {
	n := 0
	for _, e := range j.list() {
		if e == event {
			n++
		}
	}
	return n
}

type fakeEngine struct {
	j         *journal
	failStart error
}

func (e *fakeEngine) SetAPIKey(string) error { return nil }
func (e *fakeEngine) Initialize() error      { return nil }

func (e *fakeEngine) Start() error {
	if e.failStart != nil {
		return e.failStart
	}
	e.j.add("engine.start")
	return nil
}

func (e *fakeEngine) Stop() error {
	e.j.add("engine.stop")
	return nil
}

type fakeSurface struct {
	j         *journal
	id        int64
	failStart error
	failStop  error
	released  bool
}

func (s *fakeSurface) Move(mapview.CameraPosition) error { return nil }

func (s *fakeSurface) Start() error {
	if s.released {
		return errors.New("surface used after release")
	}
	if s.failStart != nil {
		return s.failStart
	}
	s.j.add("view%d.start", s.id)
	return nil
}

func (s *fakeSurface) Stop() error {
	if s.released {
		return errors.New("surface used after release")
	}
	if s.failStop != nil {
		return s.failStop
	}
	s.j.add("view%d.stop", s.id)
	return nil
}

func (s *fakeSurface) Release() {
	s.released = true
	s.j.add("view%d.release", s.id)
}

type harness struct {
	j        *journal
	engine   *fakeEngine
	runtime  *mapkit.Runtime
	sync     *Synchronizer
	surfaces map[int64]*fakeSurface
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	bridgeerrors.CollectForTest(t.Cleanup)

	h := &harness{j: &journal{}, surfaces: make(map[int64]*fakeSurface)}
	h.engine = &fakeEngine{j: h.j}
	quiet := log.NewNoopLogger()
	h.runtime = mapkit.New(h.engine, mapkit.WithLogger(quiet))
	if err := h.runtime.Initialize("k1"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	alloc := func(_ mapview.SurfaceContext, id int64) (mapview.Surface, error) {
		s := &fakeSurface{j: h.j, id: id}
		h.surfaces[id] = s
		return s, nil
	}
	factory := mapview.NewFactory(alloc,
		mapview.WithLogger(quiet),
		mapview.WithNotifierFunc(func(int64) mapview.Notifier { return nil }),
	)
	h.sync = New(h.runtime, factory, WithLogger(quiet))
	return h
}

func (h *harness) create(t *testing.T, id int64) *mapview.View {
	t.Helper()
	v, err := h.sync.CreateView(id, nil, nil)
	if err != nil {
		t.Fatalf("CreateView(%d): %v", id, err)
	}
	return v
}

func equalEvents(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
