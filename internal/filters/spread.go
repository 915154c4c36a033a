package filters

import "sentinel_bot/internal/models"

// SpreadOK compares the spread in points with the limit. Missing data fails the check.
func SpreadOK(tick models.Tick, info models.SymbolInfo, maxPoints float64) bool {
	if info.Point <= 0 || tick.Ask <= 0 || tick.Bid <= 0 {
		return false
	}
	spread := (tick.Ask - tick.Bid) / info.Point
	return spread <= maxPoints+1e-9
}
