package service

import (
	"context"
	"fmt"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"sentinel_bot/internal/models"
	"sentinel_bot/internal/modules/config"
	"sentinel_bot/internal/notify"
	"sentinel_bot/internal/runner"
)

// botAPI is the part of *tgbot.BotAPI the service uses.
type botAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(cfg tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// Controller starts and stops account sessions.
type Controller interface {
	Start(acc models.Account) bool
	Stop(ctx context.Context, accountID int64) (bool, error)
	Status() []runner.Info
}

// StatsSource reads per-symbol results from trade memory.
type StatsSource interface {
	Symbols() []string
	SummarizeStats(symbol string) models.TradeStats
	AnalyzePattern(symbol string) models.StrategyFeedback
}

type Telegram struct {
	bot botAPI
	cfg *config.Config
	log *zap.Logger

	mu    sync.RWMutex
	ctrl  Controller
	stats StatsSource

	started bool
	done    chan struct{}
}

var _ notify.Sender = (*Telegram)(nil)

func NewTelegram(cfg *config.Config, log *zap.Logger) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return newTelegram(b, cfg, log), nil
}

func newTelegram(b botAPI, cfg *config.Config, log *zap.Logger) *Telegram {
	if log == nil {
		log = zap.NewNop()
	}
	return &Telegram{bot: b, cfg: cfg, log: log, done: make(chan struct{})}
}

// Bind attaches the supervisor and trade memory once they exist.
func (t *Telegram) Bind(ctrl Controller, stats StatsSource) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ctrl = ctrl
	t.stats = stats
}

func (t *Telegram) deps() (Controller, StatsSource) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ctrl, t.stats
}

// Send implements notify.Sender. Chat 0 goes to the admin chat.
func (t *Telegram) Send(_ context.Context, chatID int64, msg string) error {
	if chatID == 0 {
		chatID = t.cfg.Telegram.ChatID
	}
	if chatID == 0 {
		return nil
	}
	_, err := t.bot.Send(tgbot.NewMessage(chatID, msg))
	return err
}

func (t *Telegram) reply(ctx context.Context, chatID int64, format string, args ...any) {
	if err := t.Send(ctx, chatID, fmt.Sprintf(format, args...)); err != nil {
		t.log.Warn("telegram reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// Start consumes updates until Stop.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	t.mu.Lock()
	t.started = true
	t.mu.Unlock()

	go func() {
		defer close(t.done)
		for update := range updates {
			t.handleUpdate(ctx, update)
		}
	}()
}

func (t *Telegram) Stop() {
	t.mu.RLock()
	started := t.started
	t.mu.RUnlock()
	if !started {
		return
	}
	t.bot.StopReceivingUpdates()
	<-t.done
}
