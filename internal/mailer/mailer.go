package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/booking-platform/pkg/logger"
)

// Mailer 外发邮件端口；真正的投递通道由部署方接入
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer 默认实现：只落日志，不出网
type LogMailer struct{}

func NewLogMailer() *LogMailer { return &LogMailer{} }

func (m *LogMailer) Send(_ context.Context, to, subject, _ string) error {
	logger.Info("email dispatched",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}
