package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/todo/domain"
	appLogger "github.com/fastygo/todo/pkg/logger"
)

// LoggingBehavior logs every dispatched request with its outcome and duration.
// Expected domain failures (not found, invalid input) are logged at info level.
func LoggingBehavior(logger *zap.Logger) Behavior {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(kind Kind, name string, next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			start := time.Now()
			result, err := next(ctx, request)

			log := appLogger.WithRequestID(ctx, logger)
			fields := []zap.Field{
				zap.String("kind", string(kind)),
				zap.String("name", name),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case err == nil:
				log.Debug("request handled", fields...)
			case domain.IsDomainError(err, domain.ErrCodeNotFound), domain.IsDomainError(err, domain.ErrCodeInvalid):
				log.Info("request rejected", append(fields, zap.Error(err))...)
			default:
				log.Error("request failed", append(fields, zap.Error(err))...)
			}
			return result, err
		}
	}
}
