package errors

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// DefaultHandler is the global error handler.
	// It defaults to LogHandler writing through the default logger.
	DefaultHandler ErrorHandler = &LogHandler{}

	handlerMu sync.RWMutex
)

// SetHandler configures the global error handler.
// Pass nil to restore the default LogHandler.
func SetHandler(h ErrorHandler) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	if h == nil {
		DefaultHandler = &LogHandler{}
	} else {
		DefaultHandler = h
	}
}

// Handler returns the current global error handler.
func Handler() ErrorHandler {
	return getHandler()
}

func getHandler() ErrorHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return DefaultHandler
}

// Report sends an error to the global handler.
// If err.Timestamp is zero, it is set to the current time.
func Report(err *BridgeError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	if h := getHandler(); h != nil {
		h.HandleError(err)
	}
}

// ReportPanic sends a panic error to the global handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	if h := getHandler(); h != nil {
		h.HandlePanic(err)
	}
}

// Recover reports a panic in the deferring function as a PanicError.
//
//	defer errors.Recover("mapkit.engine.Start")
func Recover(op string) {
	if r := recover(); r != nil {
		reportRecovered(op, r)
	}
}

// RecoverWithCallback is Recover followed by callback(r), which typically
// turns the panic into the deferring function's error result.
func RecoverWithCallback(op string, callback func(r any)) {
	if r := recover(); r != nil {
		reportRecovered(op, r)
		if callback != nil {
			callback(r)
		}
	}
}

func reportRecovered(op string, r any) {
	ReportPanic(&PanicError{
		Op:         op,
		Value:      r,
		StackTrace: CaptureStack(),
		Timestamp:  time.Now(),
	})
}

// CaptureStack returns the current call stack as a string,
// excluding CaptureStack and its caller.
func CaptureStack() string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		frame, more := frames.Next()
		sb.WriteString(frame.Function)
		sb.WriteString("\n\t")
		sb.WriteString(frame.File)
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(frame.Line))
		sb.WriteString("\n")
		if !more {
			break
		}
	}
	return sb.String()
}
