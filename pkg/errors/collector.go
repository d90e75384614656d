package errors

import "sync"

// Collector is an ErrorHandler that keeps everything it receives.
// Tests install it with SetHandler to assert on reported failures.
type Collector struct {
	mu     sync.Mutex
	errs   []*BridgeError
	panics []*PanicError
}

func (c *Collector) HandleError(err *BridgeError) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

func (c *Collector) HandlePanic(err *PanicError) {
	c.mu.Lock()
	c.panics = append(c.panics, err)
	c.mu.Unlock()
}

// Errors returns the reported errors in order.
func (c *Collector) Errors() []*BridgeError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*BridgeError, len(c.errs))
	copy(out, c.errs)
	return out
}

// Panics returns the reported panics in order.
func (c *Collector) Panics() []*PanicError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*PanicError, len(c.panics))
	copy(out, c.panics)
	return out
}

// CollectForTest installs a fresh Collector as the global handler and
// restores the previous handler through cleanup (usually t.Cleanup).
func CollectForTest(cleanup func(func())) *Collector {
	c := &Collector{}
	old := getHandler()
	SetHandler(c)
	cleanup(func() { SetHandler(old) })
	return c
}
