// Package sim is an in-process stand-in for the native side of the map
// bridge. It answers engine calls on the MapKit channel, records
// notifications sent to views, and hands out surfaces whose failures can
// be scripted.
package sim

import (
	"fmt"
	"sync"
)

// Event is one call observed on the simulated native side.
type Event struct {
	Target string `json:"target" yaml:"target"`
	Op     string `json:"op" yaml:"op"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func (e Event) String() string {
	if e.Detail == "" {
		return e.Target + "." + e.Op
	}
	return fmt.Sprintf("%s.%s(%s)", e.Target, e.Op, e.Detail)
}

// Journal is an ordered, concurrency-safe event log.
type Journal struct {
	mu     sync.Mutex
	events []Event
	cursor int
}

func (j *Journal) add(target, op, detail string) {
	j.mu.Lock()
	j.events = append(j.events, Event{Target: target, Op: op, Detail: detail})
	j.mu.Unlock()
}

// Events returns every recorded event.
func (j *Journal) Events() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Event, len(j.events))
	copy(out, j.events)
	return out
}

// Drain returns the events recorded since the previous Drain.
func (j *Journal) Drain() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Event, len(j.events)-j.cursor)
	copy(out, j.events[j.cursor:])
	j.cursor = len(j.events)
	return out
}

// Count returns how many recorded events have the given target and op.
func (j *Journal) Count(target, op string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, e := range j.events {
		if e.Target == target && e.Op == op {
			n++
		}
	}
	return n
}
