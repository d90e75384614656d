// Package script parses and replays host event scripts against a simulated
// native side.
//
// A script is a YAML document:
//
//	name: two views
//	steps:
//	  - do: init
//	    credential: k1
//	  - do: create
//	    id: 1
//	  - do: attach
//	    id: 1
//	  - do: expect
//	    refcount: 1
//	    engine_starts: 1
//
// A step may carry error: <text> to require a failure whose message
// contains text. Any other failure fails the step.
package script

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/mapbridge/internal/sim"
)

// Op names a script step.
type Op string

const (
	OpInit       Op = "init"
	OpCreate     Op = "create"
	OpAttach     Op = "attach"
	OpDetach     Op = "detach"
	OpResume     Op = "resume"
	OpPause      Op = "pause"
	OpDispose    Op = "dispose"
	OpForeground Op = "foreground"
	OpBackground Op = "background"
	OpExpect     Op = "expect"
)

// Script is a parsed scenario.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one host event or expectation.
type Step struct {
	Do         Op             `yaml:"do"`
	ID         int64          `yaml:"id,omitempty"`
	Credential string         `yaml:"credential,omitempty"`
	Fail       sim.Failure    `yaml:"fail,omitempty"`
	Params     map[string]any `yaml:"params,omitempty"`
	Error      string         `yaml:"error,omitempty"`

	RefCount     *int             `yaml:"refcount,omitempty"`
	EngineStarts *int             `yaml:"engine_starts,omitempty"`
	EngineStops  *int             `yaml:"engine_stops,omitempty"`
	States       map[int64]string `yaml:"states,omitempty"`
}

func (s Step) String() string {
	switch s.Do {
	case OpInit:
		return fmt.Sprintf("init %q", s.Credential)
	case OpCreate:
		if s.Fail != sim.FailNone {
			return fmt.Sprintf("create %d (fail %s)", s.ID, s.Fail)
		}
		return fmt.Sprintf("create %d", s.ID)
	case OpAttach, OpDetach, OpResume, OpPause, OpDispose:
		return fmt.Sprintf("%s %d", s.Do, s.ID)
	}
	return string(s.Do)
}

func (s Step) validate() error {
	switch s.Do {
	case OpInit:
	case OpCreate:
		if _, err := sim.ParseFailure(string(s.Fail)); err != nil {
			return err
		}
	case OpAttach, OpDetach, OpResume, OpPause, OpDispose:
	case OpForeground, OpBackground:
	case OpExpect:
		if s.RefCount == nil && s.EngineStarts == nil && s.EngineStops == nil && len(s.States) == 0 {
			return fmt.Errorf("expect has nothing to check")
		}
		for id, state := range s.States {
			if !validState(state) {
				return fmt.Errorf("expect: view %d state %q is not one of created, ready, failed, disposed, absent", id, state)
			}
		}
	case "":
		return fmt.Errorf("missing do")
	default:
		return fmt.Errorf("unknown step %q", s.Do)
	}
	if s.ID < 0 {
		return fmt.Errorf("negative view id %d", s.ID)
	}
	return nil
}

func validState(s string) bool {
	switch s {
	case "created", "ready", "failed", "disposed", "absent":
		return true
	}
	return false
}

// Parse decodes and validates a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("script has no steps")
	}
	var problems []string
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			problems = append(problems, fmt.Sprintf("step %d: %v", i+1, err))
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid script:\n  %s", strings.Join(problems, "\n  "))
	}
	return &s, nil
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}
