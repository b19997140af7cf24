package notify

import (
	"context"

	"ridehail/pkg/logger"
)

// LogSender writes events to the application log. It is always registered,
// so completions are visible even when no external channel is configured.
type LogSender struct {
	log logger.ILogger
}

func NewLogSender(log logger.ILogger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(ctx context.Context, event Event) error {
	fields := []logger.Field{logger.String("kind", event.Kind())}
	if rc, ok := event.(RideCompleted); ok {
		fields = append(fields,
			logger.String("ride_id", rc.RideID),
			logger.String("completed_by", rc.CompletedBy),
		)
	}
	s.log.Info(event.Subject(), fields...)
	return nil
}
