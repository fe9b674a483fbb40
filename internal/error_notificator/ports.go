package error_notificator

import "context"

type Notificator interface {
	// Notify tells an operator that source failed.
	Notify(ctx context.Context, source string, err error, details string) error
}
