package services_test

import (
	"io"
	"log/slog"

	pkglogger "newswire/pkg/logger"
)

// newTestAuditLogger returns an audit logger that discards output. Tests
// assert on service behavior, not on audit log lines.
func newTestAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}
