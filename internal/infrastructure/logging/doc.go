// Package logging provides structured logging built on log/slog.
//
// The Logger wraps slog with service-wide default fields and level
// filtering configured from config.yaml. Components receive child
// loggers via With:
//
//	log := logging.New(cfg.Logging, version)
//	syncLog := log.With("component", "sync")
//
// Packages that need logging define their own small Logger interface
// (Debug/Info/Warn/Error) and accept any implementation, so nothing
// below the composition root imports this package's concrete type.
package logging
