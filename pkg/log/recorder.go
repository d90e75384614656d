package log

import "sync"

// Entry is a single message captured by a Recorder.
type Entry struct {
	Level   string
	Message string
	Fields  []Field
}

// Recorder is a Logger that keeps every message in memory. It is intended
// for tests that assert on what a component logged.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Debug(msg string, fields ...Field) { r.add("debug", msg, fields) }
func (r *Recorder) Info(msg string, fields ...Field)  { r.add("info", msg, fields) }
func (r *Recorder) Warn(msg string, fields ...Field)  { r.add("warn", msg, fields) }
func (r *Recorder) Error(msg string, fields ...Field) { r.add("error", msg, fields) }

func (r *Recorder) add(level, msg string, fields []Field) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg, Fields: fields})
	r.mu.Unlock()
}

// Entries returns a copy of the captured messages.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many messages were captured at the given level.
func (r *Recorder) Count(level string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
