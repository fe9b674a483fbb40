package error_notificator

import (
	"context"

	"go.uber.org/zap"
)

type Service struct {
	infra Notificator
	log   *zap.Logger
}

func NewService(infra Notificator, log *zap.Logger) *Service {
	if infra == nil {
		infra = NewLogInfra(log)
	}
	return &Service{infra: infra, log: log}
}

// Notify never fails the caller; delivery problems are only logged.
func (s *Service) Notify(ctx context.Context, source string, err error, details string) error {
	if sendErr := s.infra.Notify(ctx, source, err, details); sendErr != nil {
		s.log.Warn("alert delivery failed",
			zap.String("source", source),
			zap.Error(err),
			zap.NamedError("send_error", sendErr),
		)
	}
	return nil
}

// NotifyAsync is for hot paths such as breaker callbacks, which must not block.
func (s *Service) NotifyAsync(source string, err error, details string) {
	go func() {
		_ = s.Notify(context.Background(), source, err, details)
	}()
}
