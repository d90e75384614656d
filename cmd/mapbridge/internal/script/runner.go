package script

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-drift/mapbridge/internal/sim"
	"github.com/go-drift/mapbridge/pkg/bridge"
	"github.com/go-drift/mapbridge/pkg/errors"
	"github.com/go-drift/mapbridge/pkg/lifecycle"
	"github.com/go-drift/mapbridge/pkg/log"
	"github.com/go-drift/mapbridge/pkg/mapkit"
	"github.com/go-drift/mapbridge/pkg/mapview"
	"github.com/go-drift/mapbridge/pkg/platform"
)

const lifecycleChannel = "mapbridge/lifecycle"

// StepResult is the outcome of one step.
type StepResult struct {
	Index   int         `json:"index"`
	Step    string      `json:"step"`
	OK      bool        `json:"ok"`
	Error   string      `json:"error,omitempty"`
	Problem string      `json:"problem,omitempty"`
	Events  []sim.Event `json:"events,omitempty"`
	Reports []string    `json:"reports,omitempty"`
}

// Report is the outcome of a whole script.
type Report struct {
	Name   string       `json:"name"`
	Passed bool         `json:"passed"`
	Steps  []StepResult `json:"steps"`
}

// Failed returns the results of failed steps.
func (r *Report) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if !s.OK {
			out = append(out, s)
		}
	}
	return out
}

// Runner replays scripts. Every Run starts from a fresh runtime and
// native side; the application starts in the background.
type Runner struct {
	logger     log.Logger
	camera     mapview.CameraPosition
	credential string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger handed to every component.
func WithLogger(l log.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithInitialCamera sets the camera new views start at.
func WithInitialCamera(c mapview.CameraPosition) Option {
	return func(r *Runner) { r.camera = c }
}

// WithCredential initializes the runtime with key before the first step.
func WithCredential(key string) Option {
	return func(r *Runner) { r.credential = key }
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{camera: mapview.DefaultCameraPosition}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// session is the state of one Run.
type session struct {
	native  *sim.Native
	ui      *sim.MainThread
	runtime *mapkit.Runtime
	sync    *lifecycle.Synchronizer
	host    *bridge.Host
	reports *errors.Collector
	seen    int
}

// Run replays s and reports every step. It returns an error only when the
// simulation cannot be set up.
func (r *Runner) Run(s *Script) (*Report, error) {
	sess, teardown, err := r.setup()
	if err != nil {
		return nil, err
	}
	defer teardown()

	report := &Report{Name: s.Name, Passed: true}
	for i, step := range s.Steps {
		res := sess.apply(step)
		res.Index = i + 1
		res.Step = step.String()
		res.Events = sess.native.Journal().Drain()
		for _, e := range sess.drainReports() {
			res.Reports = append(res.Reports, e.Error())
		}
		if !res.OK {
			report.Passed = false
		}
		report.Steps = append(report.Steps, res)
	}
	return report, nil
}

func (r *Runner) setup() (*session, func(), error) {
	native := sim.New(r.logger)
	platform.SetNativeBridge(native)
	ui := &sim.MainThread{}
	platform.RegisterDispatch(ui.Post)

	reports := &errors.Collector{}
	previous := errors.Handler()
	errors.SetHandler(reports)

	// The simulated application has not reached the foreground yet.
	if err := setAppState(ui, platform.LifecycleStatePaused); err != nil {
		platform.RegisterDispatch(nil)
		errors.SetHandler(previous)
		return nil, nil, err
	}

	runtime := mapkit.New(mapkit.NewChannelEngine(), mapkit.WithLogger(r.logger))
	if r.credential != "" {
		if err := runtime.Initialize(r.credential); err != nil {
			platform.RegisterDispatch(nil)
			errors.SetHandler(previous)
			return nil, nil, fmt.Errorf("initialize runtime: %w", err)
		}
	}
	factory := mapview.NewFactory(native.Allocate,
		mapview.WithInitialCamera(r.camera),
		mapview.WithLogger(r.logger),
	)
	sync := lifecycle.New(runtime, factory, lifecycle.WithLogger(r.logger))
	host := bridge.New(sync, bridge.WithLogger(r.logger))
	native.Journal().Drain()

	teardown := func() {
		if err := host.Close(); err != nil {
			r.logger.Warn("simulation teardown failed", log.Err(err))
		}
		ui.Flush()
		platform.RegisterDispatch(nil)
		errors.SetHandler(previous)
	}
	return &session{
		native:  native,
		ui:      ui,
		runtime: runtime,
		sync:    sync,
		host:    host,
		reports: reports,
	}, teardown, nil
}

func (s *session) drainReports() []*errors.BridgeError {
	all := s.reports.Errors()
	fresh := all[s.seen:]
	s.seen = len(all)
	return fresh
}

func (s *session) apply(step Step) StepResult {
	if step.Do == OpExpect {
		if problem := s.check(step); problem != "" {
			return StepResult{Problem: problem}
		}
		return StepResult{OK: true}
	}

	err := s.perform(step)
	switch {
	case err == nil && step.Error == "":
		return StepResult{OK: true}
	case err == nil:
		return StepResult{Problem: fmt.Sprintf("expected error containing %q", step.Error)}
	case step.Error != "" && strings.Contains(err.Error(), step.Error):
		return StepResult{OK: true, Error: err.Error()}
	default:
		return StepResult{Error: err.Error(), Problem: "unexpected error"}
	}
}

func (s *session) perform(step Step) error {
	switch step.Do {
	case OpInit:
		return s.runtime.Initialize(step.Credential)
	case OpCreate:
		s.native.FailView(step.ID, step.Fail)
		return viewCall("create", map[string]any{
			"viewId":   step.ID,
			"viewType": mapview.ViewType,
			"params":   step.Params,
		})
	case OpAttach, OpDetach, OpResume, OpPause, OpDispose:
		return viewCall(string(step.Do), map[string]any{"viewId": step.ID})
	case OpForeground:
		if err := setAppState(s.ui, platform.LifecycleStateInactive, platform.LifecycleStateResumed); err != nil {
			return err
		}
		if !s.sync.Foreground() {
			if errs := s.reports.Errors(); len(errs) > s.seen {
				return fmt.Errorf("application did not reach the foreground: %w", errs[len(errs)-1])
			}
			return fmt.Errorf("application did not reach the foreground")
		}
		return nil
	case OpBackground:
		return setAppState(s.ui, platform.LifecycleStateInactive, platform.LifecycleStatePaused)
	}
	return fmt.Errorf("unknown step %q", step.Do)
}

func (s *session) check(step Step) string {
	var problems []string
	expectInt := func(name string, want *int, got int) {
		if want != nil && *want != got {
			problems = append(problems, fmt.Sprintf("%s = %d, want %d", name, got, *want))
		}
	}
	j := s.native.Journal()
	expectInt("refcount", step.RefCount, s.runtime.RefCount())
	expectInt("engine_starts", step.EngineStarts, j.Count(sim.TargetEngine, "start"))
	expectInt("engine_stops", step.EngineStops, j.Count(sim.TargetEngine, "stop"))

	ids := make([]int64, 0, len(step.States))
	for id := range step.States {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if got, want := s.viewState(id), step.States[id]; got != want {
			problems = append(problems, fmt.Sprintf("view %d state = %s, want %s", id, got, want))
		}
	}
	return strings.Join(problems, "; ")
}

func (s *session) viewState(id int64) string {
	if v, ok := s.sync.View(id); ok {
		return v.State().String()
	}
	if s.host.Disposed(id) {
		return mapview.StateDisposed.String()
	}
	return "absent"
}

func viewCall(method string, args map[string]any) error {
	return hostCall(bridge.ChannelName, method, args)
}

// setAppState walks the application through states in order, the way a
// mobile host passes through inactive on its way in or out of the
// foreground. Handlers dispatched to the main thread run before the next
// state is delivered.
func setAppState(ui *sim.MainThread, states ...platform.LifecycleState) error {
	for _, state := range states {
		if err := hostCall(lifecycleChannel, "didChangeState", map[string]any{"state": string(state)}); err != nil {
			return err
		}
		ui.Flush()
	}
	return nil
}

// hostCall delivers a call the way the native host would, through the
// codec and the channel registry.
func hostCall(channel, method string, args any) error {
	data, err := platform.DefaultCodec.Encode(args)
	if err != nil {
		return err
	}
	_, err = platform.HandleMethodCall(channel, method, data)
	return err
}
