package platform

import "sync"

var (
	dispatchMu   sync.RWMutex
	dispatchFunc func(callback func())
)

// RegisterDispatch sets the function used to schedule callbacks on the
// host's UI thread. The host calls this once during initialization; nil
// removes it.
func RegisterDispatch(fn func(callback func())) {
	dispatchMu.Lock()
	dispatchFunc = fn
	dispatchMu.Unlock()
}

// DispatchOrRun schedules callback on the UI thread, or runs it on the
// calling goroutine when no dispatch function is registered.
func DispatchOrRun(callback func()) {
	if callback == nil {
		return
	}
	dispatchMu.RLock()
	fn := dispatchFunc
	dispatchMu.RUnlock()
	if fn == nil {
		callback()
		return
	}
	fn(callback)
}
