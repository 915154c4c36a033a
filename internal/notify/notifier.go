// Package notify delivers user-facing messages without ever blocking the trading loop.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sender delivers one message. Implementations may block and fail.
type Sender interface {
	Send(ctx context.Context, chatID int64, msg string) error
}

// Notifier is what trading code calls. It must return immediately.
type Notifier interface {
	Notifyf(chatID int64, format string, args ...any)
}

const (
	defaultTimeout  = 10 * time.Second
	defaultInflight = 32
)

// Async sends in the background with a bounded timeout. When too many sends
// are in flight new messages are dropped and logged.
type Async struct {
	sender  Sender
	timeout time.Duration
	log     *zap.Logger

	slots chan struct{}
	wg    sync.WaitGroup
}

func NewAsync(sender Sender, timeout time.Duration, log *zap.Logger) *Async {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Async{
		sender:  sender,
		timeout: timeout,
		log:     log,
		slots:   make(chan struct{}, defaultInflight),
	}
}

func (a *Async) Notifyf(chatID int64, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	select {
	case a.slots <- struct{}{}:
	default:
		a.log.Warn("notification dropped", zap.Int64("chat_id", chatID), zap.String("msg", msg))
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() { <-a.slots }()
		defer func() {
			if p := recover(); p != nil {
				a.log.Error("notification panic", zap.Any("panic", p))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.sender.Send(ctx, chatID, msg); err != nil {
			a.log.Warn("notification failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight sends finish. Used on shutdown.
func (a *Async) Wait() { a.wg.Wait() }

// Stdout writes messages to the log. Used when no Telegram token is configured.
type Stdout struct {
	log *zap.Logger
}

func NewStdout(log *zap.Logger) *Stdout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Stdout{log: log}
}

func (s *Stdout) Send(_ context.Context, chatID int64, msg string) error {
	s.log.Info("notify", zap.Int64("chat_id", chatID), zap.String("msg", msg))
	return nil
}
