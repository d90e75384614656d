package errors

import "github.com/go-drift/mapbridge/pkg/log"

// LogHandler is an ErrorHandler that writes errors to a structured logger.
type LogHandler struct {
	// Logger receives the entries. Nil means log.Default().
	Logger log.Logger
	// Verbose adds stack traces to the entries.
	Verbose bool
}

func (h *LogHandler) logger() log.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return log.Default()
}

// HandleError logs a BridgeError at error level.
func (h *LogHandler) HandleError(err *BridgeError) {
	if err == nil {
		return
	}
	fields := []log.Field{
		log.String("op", err.Op),
		log.String("kind", err.Kind.String()),
		log.Err(err.Err),
	}
	if err.Channel != "" {
		fields = append(fields, log.String("channel", err.Channel))
	}
	if err.ViewID != 0 {
		fields = append(fields, log.Int64("view_id", err.ViewID))
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, log.String("stack", err.StackTrace))
	}
	h.logger().Error("mapbridge error", fields...)
}

// HandlePanic logs a PanicError at error level.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	fields := []log.Field{log.Any("value", err.Value)}
	if err.Op != "" {
		fields = append(fields, log.String("op", err.Op))
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, log.String("stack", err.StackTrace))
	}
	h.logger().Error("mapbridge panic", fields...)
}
