// Package errors provides structured error handling for mapbridge.
//
// Failures inside the bridge are never allowed to crash the embedding host.
// Components wrap them in a [BridgeError], hand them to [Report] and carry
// on; the configured [ErrorHandler] decides what to do with them (the
// default logs them).
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindPlatform indicates a platform channel or native bridge error.
	KindPlatform
	// KindParsing indicates an event or argument parsing failure.
	KindParsing
	// KindInit indicates a runtime initialization error.
	KindInit
	// KindActivation indicates a runtime activation or deactivation error.
	KindActivation
	// KindConstruction indicates a map view failed to construct.
	KindConstruction
	// KindSurface indicates a rendering surface call failed.
	KindSurface
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindPlatform:
		return "platform"
	case KindParsing:
		return "parsing"
	case KindInit:
		return "init"
	case KindActivation:
		return "activation"
	case KindConstruction:
		return "construction"
	case KindSurface:
		return "surface"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// BridgeError represents a structured error in the bridge.
type BridgeError struct {
	// Op is the operation that failed (e.g., "mapview.Start").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Channel is the platform channel name, if applicable.
	Channel string
	// ViewID is the map view the error belongs to, or 0.
	ViewID int64
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *BridgeError) Error() string {
	prefix := fmt.Sprintf("%s [%s]", e.Op, e.Kind)
	if e.ViewID != 0 {
		prefix += fmt.Sprintf(" view=%d", e.ViewID)
	}
	if e.Channel != "" {
		prefix += " channel=" + e.Channel
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

func (e *BridgeError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "mapview.Create").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ParseError represents a failure to parse data received from native code.
type ParseError struct {
	// Channel is the platform channel that received the data.
	Channel string
	// DataType is the expected type name.
	DataType string
	// Got is the actual data received.
	Got any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s from channel %s: got %T", e.DataType, e.Channel, e.Got)
}

// ErrorHandler receives errors reported by the bridge.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *BridgeError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
