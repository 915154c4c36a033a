package service

import (
	"fmt"
	"strings"

	"sentinel_bot/internal/runner"
)

const helpText = "Sentinel trading bot\n\n" +
	"/run [id] start scanning for an account\n" +
	"/halt [id] stop it\n" +
	"/status sessions and last signals\n" +
	"/stats [symbol] results from trade memory"

func formatStatus(infos []runner.Info) string {
	if len(infos) == 0 {
		return "📭 No sessions"
	}
	var b strings.Builder
	b.WriteString("📊 Sessions\n")
	for _, in := range infos {
		fmt.Fprintf(&b, "\n#%d %s: %s\n", in.AccountID, in.Name, in.State)
		fmt.Fprintf(&b, "  cycles %d, orders %d, symbols %d\n", in.Session.Cycles, in.Session.Orders, len(in.Session.Symbols))
		if !in.Session.LastCycle.IsZero() {
			fmt.Fprintf(&b, "  last cycle %s\n", in.Session.LastCycle.Format("2006-01-02 15:04:05"))
		}
		if in.Session.LastSignal != "" {
			fmt.Fprintf(&b, "  last signal %s\n", in.Session.LastSignal)
		}
		if in.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", in.Error)
		} else if in.Session.LastError != "" {
			fmt.Fprintf(&b, "  last error: %s\n", in.Session.LastError)
		}
	}
	return b.String()
}

func formatStats(src StatsSource, symbols []string) string {
	if len(symbols) == 0 {
		return "📭 Trade memory is empty"
	}
	var b strings.Builder
	b.WriteString("📈 Trade memory\n")
	for _, sym := range symbols {
		st := src.SummarizeStats(sym)
		fb := src.AnalyzePattern(sym)
		fmt.Fprintf(&b, "\n%s: %d trades, %d W / %d L, win rate %s%%",
			sym, st.TotalTrades, st.Wins, st.Losses, f2(st.WinRate))
		switch {
		case fb.StreakLoss:
			b.WriteString(" ⚠️ loss streak, risk halved")
		case fb.StreakWin:
			b.WriteString(" 🔥 win streak")
		}
		b.WriteString("\n")
	}
	return b.String()
}
