package services

import (
	"chapterauth/internal/logger"
	"context"

	"go.uber.org/zap"
)

// Notifier доставляет письмо пользователю. Доставка ненадёжна:
// ошибку нужно вернуть, а не проглотить.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogNotifier пишет письмо в лог вместо отправки. Используется, когда SMTP не настроен.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = logger.Log
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Info("Письмо не отправлено: SMTP не настроен",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
