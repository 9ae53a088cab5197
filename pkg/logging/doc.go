// Package logging builds the structured loggers used across wsgate.
//
// Components accept a *slog.Logger through their constructor options or a
// SetLogger method and fall back to Nop when none is given:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel("debug"),
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("gateway listening", "addr", ":61614")
package logging
