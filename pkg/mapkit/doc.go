// Package mapkit holds the process-wide handle to the native map runtime.
//
// The runtime is initialized once with an API key and then activated and
// deactivated by reference count: the engine is started when the first
// consumer activates it and stopped when the last one deactivates it.
// Callers outside the lifecycle package should not activate the runtime
// directly.
package mapkit
