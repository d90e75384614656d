package mapview

import (
	"fmt"
	"sync"

	"github.com/go-drift/mapbridge/pkg/log"
)

// ViewType is the identifier the host uses to request a map view.
const ViewType = "yandex_mapkit/yandex_map"

type options struct {
	camera      CameraPosition
	logger      log.Logger
	newNotifier NotifierFunc
}

// Option configures a Factory or a standalone View.
type Option func(*options)

// WithInitialCamera overrides DefaultCameraPosition.
func WithInitialCamera(c CameraPosition) Option {
	return func(o *options) { o.camera = c }
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNotifierFunc replaces NewChannelNotifier as the source of per-view
// notifiers. Only used by Factory.
func WithNotifierFunc(fn NotifierFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.newNotifier = fn
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		camera:      DefaultCameraPosition,
		newNotifier: NewChannelNotifier,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	return o
}

// Factory creates map views keyed by host-assigned id.
// It is safe for concurrent use.
type Factory struct {
	allocate SurfaceAllocator
	opts     options

	mu   sync.Mutex
	live map[int64]*View
}

// NewFactory creates a Factory that allocates surfaces with allocate.
func NewFactory(allocate SurfaceAllocator, opts ...Option) *Factory {
	return &Factory{
		allocate: allocate,
		opts:     buildOptions(opts),
		live:     make(map[int64]*View),
	}
}

// ViewType returns the view type this factory creates.
func (f *Factory) ViewType() string {
	return ViewType
}

// Build creates the view for id. It fails only with ErrDuplicateViewID;
// a view whose construction failed is returned in StateFailed. The id
// becomes available again once the view is disposed.
func (f *Factory) Build(id int64, ctx SurfaceContext, args map[string]any) (*View, error) {
	f.mu.Lock()
	if _, ok := f.live[id]; ok {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrDuplicateViewID, id)
	}
	// Reserve the id while the view is constructed outside the lock.
	f.live[id] = nil
	f.mu.Unlock()

	v := newView(id, f.opts.newNotifier(id), f.opts)
	v.release = func() {
		f.mu.Lock()
		if f.live[id] == v {
			delete(f.live, id)
		}
		f.mu.Unlock()
	}

	f.mu.Lock()
	f.live[id] = v
	f.mu.Unlock()

	v.construct(ctx, args, f.opts.camera, f.allocate)
	return v, nil
}

// Lookup returns the live view for id.
func (f *Factory) Lookup(id int64) (*View, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.live[id]
	return v, ok && v != nil
}

// Live returns the number of views that have not been disposed.
func (f *Factory) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

// Views returns the live views.
func (f *Factory) Views() []*View {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*View, 0, len(f.live))
	for _, v := range f.live {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}
