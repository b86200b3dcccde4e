package service

import (
	"context"

	"go.uber.org/zap"
)

// Alerter meneruskan kondisi yang butuh perhatian operator.
type Alerter interface {
	Alert(ctx context.Context, subject string, kv ...any)
}

type LogAlerter struct {
	log *zap.SugaredLogger
}

func NewLogAlerter(log *zap.SugaredLogger) *LogAlerter {
	return &LogAlerter{log: log}
}

func (a *LogAlerter) Alert(ctx context.Context, subject string, kv ...any) {
	a.log.With("alert", true).Errorw(subject, kv...)
}
