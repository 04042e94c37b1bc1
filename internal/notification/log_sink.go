package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes messages to the application log instead of sending them.
// Local development only.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("sms")}
}

func (s *LogSink) Send(_ context.Context, phoneE164, message string) error {
	s.logger.Info("SMS not sent, log provider active",
		zap.String("to", phoneE164),
		zap.String("message", message),
	)
	return nil
}
