package mapview

import (
	"errors"
	"testing"

	bridgeerrors "github.com/go-drift/mapbridge/pkg/errors"
	"github.com/go-drift/mapbridge/pkg/platform"
)

func newTestFactory(t *testing.T, alloc SurfaceAllocator, opts ...Option) (*Factory, map[int64]*recordingNotifier) {
	t.Helper()
	bridgeerrors.CollectForTest(t.Cleanup)
	notifiers := map[int64]*recordingNotifier{}
	opts = append([]Option{
		quiet(),
		WithNotifierFunc(func(id int64) Notifier {
			n := &recordingNotifier{}
			notifiers[id] = n
			return n
		}),
	}, opts...)
	return NewFactory(alloc, opts...), notifiers
}

func surfaceAllocator() SurfaceAllocator {
	return func(SurfaceContext, int64) (Surface, error) { return &fakeSurface{}, nil }
}

func TestFactoryBuild(t *testing.T) {
	f, notifiers := newTestFactory(t, surfaceAllocator())

	v, err := f.Build(1, "activity", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if v.ID() != 1 || v.State() != StateReady {
		t.Fatalf("id=%d state=%v", v.ID(), v.State())
	}
	if notes := notifiers[1].notes(); len(notes) != 1 || notes[0].method != MethodMapReady {
		t.Errorf("notifications = %+v", notes)
	}
	if got, ok := f.Lookup(1); !ok || got != v {
		t.Error("Lookup(1) should return the view")
	}
	if f.Live() != 1 || len(f.Views()) != 1 {
		t.Errorf("Live()=%d Views()=%d, want 1", f.Live(), len(f.Views()))
	}
	if f.ViewType() != "yandex_mapkit/yandex_map" {
		t.Errorf("ViewType() = %q", f.ViewType())
	}
}

func TestFactoryDuplicateID(t *testing.T) {
	f, notifiers := newTestFactory(t, surfaceAllocator())

	first, err := f.Build(7, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Build(7, nil, nil); !errors.Is(err, ErrDuplicateViewID) {
		t.Fatalf("second Build(7) = %v, want ErrDuplicateViewID", err)
	}
	if len(notifiers[7].notes()) != 1 {
		t.Error("rejected build must not reuse the live view's channel")
	}

	first.Dispose()
	if _, ok := f.Lookup(7); ok {
		t.Error("disposed view still live")
	}

	second, err := f.Build(7, nil, nil)
	if err != nil {
		t.Fatalf("Build after dispose: %v", err)
	}
	if second == first {
		t.Error("expected a fresh view")
	}
	// Disposing the old handle again must not free the new view's id.
	first.Dispose()
	if _, ok := f.Lookup(7); !ok {
		t.Error("stale dispose released the new view's id")
	}
}

func TestFactoryFailedViewHoldsID(t *testing.T) {
	f, _ := newTestFactory(t, func(SurfaceContext, int64) (Surface, error) {
		return nil, errors.New("out of memory")
	})

	v, err := f.Build(3, nil, nil)
	if err != nil {
		t.Fatalf("construction failure must not be a Build error: %v", err)
	}
	if v.State() != StateFailed {
		t.Fatalf("state = %v", v.State())
	}
	if _, err := f.Build(3, nil, nil); !errors.Is(err, ErrDuplicateViewID) {
		t.Errorf("failed views are live until disposed, got %v", err)
	}
}

func TestFactoryInitialCamera(t *testing.T) {
	spb := CameraPosition{Target: Point{Latitude: 59.9386, Longitude: 30.3141}, Zoom: 12}
	f, _ := newTestFactory(t, surfaceAllocator(), WithInitialCamera(spb))

	v, err := f.Build(1, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.Camera() != spb {
		t.Errorf("camera = %+v, want %+v", v.Camera(), spb)
	}

	v2, err := f.Build(2, nil, map[string]any{"zoom": 3.0})
	if err != nil {
		t.Fatal(err)
	}
	if v2.Camera().Zoom != 3 || v2.Camera().Target != spb.Target {
		t.Errorf("args should override only zoom, got %+v", v2.Camera())
	}
}

func TestChannelNotifierOverPlatform(t *testing.T) {
	bridge := platform.SetupRecordingBridge(t.Cleanup)
	bridgeerrors.CollectForTest(t.Cleanup)

	f := NewFactory(surfaceAllocator(), quiet())
	ok, err := f.Build(1, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	failAlloc := NewFactory(func(SurfaceContext, int64) (Surface, error) {
		return nil, errors.New("no activity")
	}, quiet())
	bad, err := failAlloc.Build(2, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	readyCalls := bridge.CallsOn("yandex_mapkit/map_controller_1")
	if len(readyCalls) != 1 || readyCalls[0].Method != MethodMapReady || readyCalls[0].Args != nil {
		t.Errorf("view 1 calls = %+v", readyCalls)
	}
	errCalls := bridge.CallsOn("yandex_mapkit/map_controller_2")
	if len(errCalls) != 1 || errCalls[0].Method != MethodMapError {
		t.Fatalf("view 2 calls = %+v", errCalls)
	}
	if msg, _ := errCalls[0].Args.(string); msg == "" {
		t.Errorf("error notification should carry a message, got %#v", errCalls[0].Args)
	}

	ok.Dispose()
	bad.Dispose()
	if platform.HasMethodChannel(ChannelName(1)) || platform.HasMethodChannel(ChannelName(2)) {
		t.Error("dispose should release the view channels")
	}
	if len(bridge.Calls()) != 2 {
		t.Errorf("dispose must not send notifications, calls = %+v", bridge.Calls())
	}
}

func TestChannelName(t *testing.T) {
	if got := ChannelName(42); got != "yandex_mapkit/map_controller_42" {
		t.Errorf("ChannelName(42) = %q", got)
	}
	n := NewChannelNotifier(5).(*ChannelNotifier)
	defer n.Close()
	if n.Name() != ChannelName(5) {
		t.Errorf("Name() = %q", n.Name())
	}
}
