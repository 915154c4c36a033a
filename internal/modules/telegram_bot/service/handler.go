package service

import (
	"context"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"sentinel_bot/internal/runner"
)

const (
	btnRun    = "▶️ Run"
	btnHalt   = "⏹ Halt"
	btnStatus = "📊 Status"
	btnStats  = "📈 Stats"
)

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	cmd, arg := "", ""
	if msg.IsCommand() {
		cmd, arg = msg.Command(), strings.TrimSpace(msg.CommandArguments())
	} else {
		switch strings.TrimSpace(msg.Text) {
		case btnRun:
			cmd = "run"
		case btnHalt:
			cmd = "halt"
		case btnStatus:
			cmd = "status"
		case btnStats:
			cmd = "stats"
		default:
			return
		}
	}

	t.log.Info("telegram command", zap.Int64("chat_id", chatID), zap.String("cmd", cmd), zap.String("arg", arg))

	switch cmd {
	case "start", "help":
		t.handleStart(chatID)
	case "run":
		t.handleRun(ctx, chatID, arg)
	case "halt", "stop":
		t.handleHalt(ctx, chatID, arg)
	case "status":
		t.handleStatus(ctx, chatID)
	case "stats":
		t.handleStats(ctx, chatID, arg)
	default:
		t.reply(ctx, chatID, "Unknown command. Try /help")
	}
}

func (t *Telegram) handleStart(chatID int64) {
	kb := tgbot.NewReplyKeyboard(
		tgbot.NewKeyboardButtonRow(
			tgbot.NewKeyboardButton(btnRun),
			tgbot.NewKeyboardButton(btnHalt),
		),
		tgbot.NewKeyboardButtonRow(
			tgbot.NewKeyboardButton(btnStatus),
			tgbot.NewKeyboardButton(btnStats),
		),
	)
	msg := tgbot.NewMessage(chatID, helpText)
	msg.ReplyMarkup = kb
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warn("telegram start", zap.Error(err))
	}
}

func (t *Telegram) handleRun(ctx context.Context, chatID int64, arg string) {
	ctrl, _ := t.deps()
	if ctrl == nil {
		t.reply(ctx, chatID, "⏳ Still starting up, try again in a moment")
		return
	}
	acc, ok := pick(t.accountsFor(chatID), parseID(arg))
	if !ok {
		t.reply(ctx, chatID, "❓ No account for this chat. Use /run <account id>")
		return
	}
	if !ctrl.Start(acc) {
		t.reply(ctx, chatID, "ℹ️ %s is already running", acc.Name)
		return
	}
	t.reply(ctx, chatID, "✅ Starting %s", acc.Name)
}

func (t *Telegram) handleHalt(ctx context.Context, chatID int64, arg string) {
	ctrl, _ := t.deps()
	if ctrl == nil {
		t.reply(ctx, chatID, "⏳ Still starting up, try again in a moment")
		return
	}
	acc, ok := pick(t.accountsFor(chatID), parseID(arg))
	if !ok {
		t.reply(ctx, chatID, "❓ No account for this chat. Use /halt <account id>")
		return
	}
	stopped, err := ctrl.Stop(ctx, acc.ID)
	switch {
	case err != nil:
		t.log.Error("halt", zap.Int64("account", acc.ID), zap.Error(err))
		t.reply(ctx, chatID, "⚠️ Could not stop %s: %v", acc.Name, err)
	case !stopped:
		t.reply(ctx, chatID, "ℹ️ %s is not running", acc.Name)
	default:
		t.reply(ctx, chatID, "🛑 %s stopped", acc.Name)
	}
}

func (t *Telegram) handleStatus(ctx context.Context, chatID int64) {
	ctrl, _ := t.deps()
	if ctrl == nil {
		t.reply(ctx, chatID, "⏳ Still starting up, try again in a moment")
		return
	}
	allowed := make(map[int64]bool)
	for _, acc := range t.accountsFor(chatID) {
		allowed[acc.ID] = true
	}
	var infos []runner.Info
	for _, info := range ctrl.Status() {
		if allowed[info.AccountID] {
			infos = append(infos, info)
		}
	}
	t.reply(ctx, chatID, "%s", formatStatus(infos))
}

func (t *Telegram) handleStats(ctx context.Context, chatID int64, arg string) {
	_, stats := t.deps()
	if stats == nil {
		t.reply(ctx, chatID, "⏳ Still starting up, try again in a moment")
		return
	}
	symbols := stats.Symbols()
	if arg = strings.TrimSpace(arg); arg != "" {
		symbols = []string{matchSymbol(symbols, arg)}
	}
	t.reply(ctx, chatID, "%s", formatStats(stats, symbols))
}

// matchSymbol keeps the broker's spelling (EURUSDm, XAUUSD.r) of a known symbol.
func matchSymbol(known []string, arg string) string {
	for _, s := range known {
		if strings.EqualFold(s, arg) {
			return s
		}
	}
	return strings.ToUpper(arg)
}

func parseID(arg string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
