// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance supporting different environments
// (console output for interactive CLI use, JSON for service deployments).
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Sync finished")
//
//	// Inside a sync cycle:
//	l := logger.WithRunID(log, summary.RunID)
//	l.Error("Write failed", zap.Error(err))
package logger
