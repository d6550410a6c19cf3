package core

import (
	"errors"

	"github.com/justanuragmaurya/chat-app/logging"
)

// ErrModelCallLimit is returned when a run exceeds its model call budget.
var ErrModelCallLimit = errors.New("exceeded max model calls")

// loggerAdapter wraps a logging.Logger and guarantees a non-nil logger by
// substituting a NoOpLogger when constructed with nil.
type loggerAdapter struct {
	logger logging.Logger
}

func newLoggerAdapter(l logging.Logger) *loggerAdapter {
	return &loggerAdapter{logger: logging.OrNoOp(l)}
}

// Logger returns the underlying logger.
func (l *loggerAdapter) Logger() logging.Logger {
	return l.logger
}
