package service

import (
	"go.uber.org/zap"

	"sentinel_bot/internal/models"
)

type Starter interface {
	Start(acc models.Account) bool
}

// Autostart launches every account flagged autostart and returns how many
// sessions were actually started.
func Autostart(s Starter, accounts []models.Account, log *zap.Logger) int {
	n := 0
	for _, acc := range accounts {
		if !acc.Autostart {
			continue
		}
		if s.Start(acc) {
			n++
			log.Info("autostart", zap.Int64("account", acc.ID), zap.String("name", acc.Name), zap.Bool("paper", acc.Paper))
		}
	}
	return n
}
