package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DueMessageSender envia as mensagens atrasadas que já venceram e devolve quantas saíram.
type DueMessageSender interface {
	SendDue(ctx context.Context) (int, error)
}

type MessageScheduler struct {
	sender       DueMessageSender
	tickInterval time.Duration
	log          *zap.Logger
}

func NewMessageScheduler(sender DueMessageSender, tickInterval time.Duration) *MessageScheduler {
	if tickInterval <= 0 {
		tickInterval = time.Minute
	}
	return &MessageScheduler{
		sender:       sender,
		tickInterval: tickInterval,
		log:          zap.L().Named("scheduler"),
	}
}

// Start roda um ciclo imediatamente e depois a cada tick, até o ctx ser cancelado.
func (s *MessageScheduler) Start(ctx context.Context) {
	s.log.Info("message scheduler started", zap.Duration("interval", s.tickInterval))

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("message scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *MessageScheduler) RunOnce(ctx context.Context) int {
	sent, err := s.sender.SendDue(ctx)
	if err != nil {
		s.log.Error("failed to dispatch due messages", zap.Error(err))
		return sent
	}
	if sent > 0 {
		s.log.Info("delayed stage messages dispatched", zap.Int("count", sent))
	}
	return sent
}
