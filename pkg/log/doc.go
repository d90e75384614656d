// Package log provides the structured logging abstraction used across
// mapbridge.
//
// Components log through the [Logger] interface so the backend can be chosen
// by the embedding application. Two backends are provided: zerolog (the
// default, console output on stderr) and zap. A no-op logger is available for
// tests.
//
//	logger, err := log.New(log.Options{Backend: log.BackendZap, Level: "debug"})
//	if err != nil {
//	    return err
//	}
//	log.SetDefault(logger)
package log
