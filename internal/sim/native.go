package sim

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-drift/mapbridge/pkg/log"
	"github.com/go-drift/mapbridge/pkg/mapkit"
	"github.com/go-drift/mapbridge/pkg/mapview"
	"github.com/go-drift/mapbridge/pkg/platform"
)

// Target names used in journal events.
const (
	TargetEngine = "engine"
	TargetHost   = "host"
)

// Failure selects which construction step of a view should fail.
type Failure string

const (
	FailNone      Failure = ""
	FailAllocate  Failure = "allocate"
	FailConfigure Failure = "configure"
)

// ParseFailure validates a failure name.
func ParseFailure(s string) (Failure, error) {
	switch f := Failure(s); f {
	case FailNone, FailAllocate, FailConfigure:
		return f, nil
	}
	return FailNone, fmt.Errorf("unknown failure %q (want allocate or configure)", s)
}

// Native implements platform.NativeBridge. Calls on the MapKit channel
// drive a simulated engine; calls on view controller channels are
// recorded as host notifications.
type Native struct {
	journal *Journal
	logger  log.Logger

	mu        sync.Mutex
	apiKey    string
	running   bool
	failStart error
	failStop  error
	failInit  error
	failures  map[int64]Failure
}

// New creates a simulated native side.
func New(logger log.Logger) *Native {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Native{
		journal:  &Journal{},
		logger:   logger,
		failures: make(map[int64]Failure),
	}
}

// Journal returns the event log.
func (n *Native) Journal() *Journal {
	return n.journal
}

// Running reports whether the simulated engine is started.
func (n *Native) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

// APIKey returns the key the engine was configured with.
func (n *Native) APIKey() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.apiKey
}

// FailEngineInit makes engine initialization fail with err until cleared
// with nil.
func (n *Native) FailEngineInit(err error) {
	n.mu.Lock()
	n.failInit = err
	n.mu.Unlock()
}

// FailEngineStart makes engine starts fail with err until cleared with nil.
func (n *Native) FailEngineStart(err error) {
	n.mu.Lock()
	n.failStart = err
	n.mu.Unlock()
}

// FailEngineStop makes engine stops fail with err until cleared with nil.
func (n *Native) FailEngineStop(err error) {
	n.mu.Lock()
	n.failStop = err
	n.mu.Unlock()
}

// FailView arranges for the next construction of viewID to fail at f.
func (n *Native) FailView(viewID int64, f Failure) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if f == FailNone {
		delete(n.failures, viewID)
		return
	}
	n.failures[viewID] = f
}

func (n *Native) takeFailure(viewID int64) Failure {
	n.mu.Lock()
	defer n.mu.Unlock()
	f := n.failures[viewID]
	delete(n.failures, viewID)
	return f
}

// InvokeMethod implements platform.NativeBridge.
func (n *Native) InvokeMethod(channel, method string, argsData []byte) ([]byte, error) {
	args, err := platform.DefaultCodec.Decode(argsData)
	if err != nil {
		return nil, err
	}
	switch {
	case channel == mapkit.EngineChannelName:
		err = n.engineCall(method, args)
	case strings.HasPrefix(channel, mapview.ControllerChannelPrefix+"_"):
		err = n.notification(channel, method, args)
	default:
		err = platform.ErrChannelNotFound
	}
	if err != nil {
		return nil, err
	}
	return platform.DefaultCodec.Encode(nil)
}

// StartEventStream implements platform.NativeBridge.
func (n *Native) StartEventStream(string) error { return nil }

// StopEventStream implements platform.NativeBridge.
func (n *Native) StopEventStream(string) error { return nil }

func (n *Native) engineCall(method string, args any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch method {
	case "setApiKey":
		m, _ := args.(map[string]any)
		key, ok := m["apiKey"].(string)
		if !ok {
			return platform.ErrInvalidArguments
		}
		n.apiKey = key
		n.journal.add(TargetEngine, "setApiKey", key)
	case "initialize":
		if n.failInit != nil {
			return n.failInit
		}
		if n.apiKey == "" {
			return &platform.ChannelError{Code: "no_api_key", Message: "MapKit initialized without an API key"}
		}
		n.journal.add(TargetEngine, "initialize", "")
	case "onStart":
		if n.failStart != nil {
			return n.failStart
		}
		if n.running {
			return &platform.ChannelError{Code: "already_started", Message: "MapKit is already started"}
		}
		n.running = true
		n.journal.add(TargetEngine, "start", "")
	case "onStop":
		if n.failStop != nil {
			return n.failStop
		}
		if !n.running {
			return &platform.ChannelError{Code: "not_started", Message: "MapKit is not started"}
		}
		n.running = false
		n.journal.add(TargetEngine, "stop", "")
	default:
		return platform.ErrMethodNotFound
	}
	n.logger.Debug("sim engine call", log.String("method", method))
	return nil
}

func (n *Native) notification(channel, method string, args any) error {
	id := strings.TrimPrefix(channel, mapview.ControllerChannelPrefix+"_")
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return platform.ErrChannelNotFound
	}
	detail := "view=" + id
	switch method {
	case mapview.MethodMapReady:
	case mapview.MethodMapError:
		msg, _ := args.(string)
		detail += " " + msg
	default:
		return platform.ErrMethodNotFound
	}
	n.journal.add(TargetHost, method, detail)
	return nil
}

// Allocate is a mapview.SurfaceAllocator producing simulated surfaces.
func (n *Native) Allocate(_ mapview.SurfaceContext, viewID int64) (mapview.Surface, error) {
	f := n.takeFailure(viewID)
	if f == FailAllocate {
		return nil, errors.New("simulated surface allocation failure")
	}
	n.journal.add(surfaceTarget(viewID), "allocate", "")
	return &Surface{native: n, id: viewID, failMove: f == FailConfigure}, nil
}

func surfaceTarget(id int64) string {
	return "view" + strconv.FormatInt(id, 10)
}
