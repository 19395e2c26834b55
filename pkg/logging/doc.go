// Package logging provides subsystem-tagged structured logging for hawk.
//
// It is a thin layer over log/slog. Every entry carries a subsystem name so
// that output from the loader, resolver, adapters and the sync engine can be
// told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("Resolver", "Resolved %d hooks for %s", n, dir)
//	logging.Error("Reconciler", err, "Failed to write %s", path)
//
// ParseLevel turns a --log-level value into a LogLevel.
//
// Logging before initialisation is a no-op apart from errors, which fall back
// to stderr so that bootstrap failures are never silent.
package logging
