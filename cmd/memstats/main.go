// Command memstats prints per-symbol results from the trade memory.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/pflag"

	"sentinel_bot/internal/memory"
	"sentinel_bot/internal/memory/file"
	"sentinel_bot/internal/memory/pg"
	"sentinel_bot/internal/models"
	"sentinel_bot/internal/modules/config"
	"sentinel_bot/pkg/db"
	"sentinel_bot/pkg/logger"
)

type row struct {
	models.TradeStats
	Feedback models.StrategyFeedback `json:"feedback"`
}

func main() {
	var (
		cfgPath = pflag.StringP("config", "c", "configs/values_local.yaml", "config file")
		path    = pflag.StringP("path", "p", "", "trade memory file, overrides the config")
		backend = pflag.StringP("backend", "b", "", "file or postgres, overrides the config")
		symbol  = pflag.StringP("symbol", "s", "", "only this symbol")
		asJSON  = pflag.Bool("json", false, "print JSON")
	)
	pflag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("load config: %v", err)
	}
	if *path != "" {
		cfg.Memory.Path = *path
	}
	if *backend != "" {
		cfg.Memory.Backend = *backend
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := open(ctx, cfg)
	if err != nil {
		logger.Fatal("open trade memory: %v", err)
	}
	defer closeStore()

	tr := memory.NewTracker(store, nil)
	if err := tr.Load(ctx); err != nil {
		logger.Fatal("%v", err)
	}

	symbols := tr.Symbols()
	if *symbol != "" {
		symbols = []string{strings.ToUpper(*symbol)}
	}
	rows := make([]row, 0, len(symbols))
	for _, s := range symbols {
		rows = append(rows, row{TradeStats: tr.SummarizeStats(s), Feedback: tr.AnalyzePattern(s)})
	}

	if *asJSON {
		out, err := sonic.ConfigStd.MarshalIndent(rows, "", "  ")
		if err != nil {
			logger.Fatal("encode: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tTRADES\tWINS\tLOSSES\tWIN RATE\tSTREAK\tOPEN")
	for _, r := range rows {
		streak := "-"
		switch {
		case r.Feedback.StreakLoss:
			streak = "loss"
		case r.Feedback.StreakWin:
			streak = "win"
		}
		openCount := 0
		for _, rec := range tr.RecentTrades(r.Symbol, r.TotalTrades) {
			if rec.Open() {
				openCount++
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f%%\t%s\t%d\n", r.Symbol, r.TotalTrades, r.Wins, r.Losses, r.WinRate, streak, openCount)
	}
	_ = w.Flush()
}

func open(ctx context.Context, cfg *config.Config) (memory.Store, func(), error) {
	if cfg.Memory.Backend != "postgres" {
		return file.NewStore(cfg.Memory.Path), func() {}, nil
	}
	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DB, MaxConns: 2})
	if err != nil {
		return nil, nil, err
	}
	return pg.NewStore(db.NewPgTxManager(pool)), pool.Close, nil
}
