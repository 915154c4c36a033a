// Package risk picks the risk percent for a balance and converts it into a lot size.
package risk

import (
	"fmt"
	"math"
	"sort"

	"sentinel_bot/internal/helper"
	"sentinel_bot/internal/models"
)

const (
	MinLot         = 0.01
	DefaultMaxLot  = 1.0
	MinRiskPercent = 0.005
	maxRiskPercent = 100.0
	lotBalanceUnit = 1000.0
)

// DefaultTiers: small accounts take proportionally more risk.
func DefaultTiers() Tiers {
	return Tiers{
		{BalanceMax: 100, RiskPercent: 0.10},
		{BalanceMax: 1000, RiskPercent: 0.03},
		{BalanceMax: math.Inf(1), RiskPercent: 0.02},
	}
}

// Tiers is sorted ascending by BalanceMax and ends with +Inf.
type Tiers []models.RiskTier

func (t Tiers) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("risk tiers: empty")
	}
	if !sort.SliceIsSorted(t, func(i, j int) bool { return t[i].BalanceMax < t[j].BalanceMax }) {
		return fmt.Errorf("risk tiers: not sorted by balance_max")
	}
	if !math.IsInf(t[len(t)-1].BalanceMax, 1) {
		return fmt.Errorf("risk tiers: last balance_max must be .inf, got %v", t[len(t)-1].BalanceMax)
	}
	for i, tier := range t {
		if tier.RiskPercent <= 0 || math.IsNaN(tier.RiskPercent) {
			return fmt.Errorf("risk tiers: tier %d has non-positive risk_percent", i)
		}
	}
	return nil
}

// Lookup returns the risk percent of the first tier whose BalanceMax >= balance.
func (t Tiers) Lookup(balance float64) float64 {
	for _, tier := range t {
		if tier.BalanceMax >= balance {
			return tier.RiskPercent
		}
	}
	// unreachable for validated tiers
	return t[len(t)-1].RiskPercent
}

// RiskPercent applies the loss-streak halving, never below MinRiskPercent.
func (t Tiers) RiskPercent(balance float64, fb models.StrategyFeedback) float64 {
	r := helper.Clamp(t.Lookup(balance), MinRiskPercent, maxRiskPercent)
	if fb.AdjustRisk {
		r = math.Max(r/2, MinRiskPercent)
	}
	return r
}

// CalculateLot converts risk into volume, clamped to [MinLot, maxLot] with 2 decimals.
func CalculateLot(balance, riskPercent, maxLot float64) float64 {
	maxLot = helper.RoundDownToTick(maxLot, MinLot)
	if maxLot < MinLot {
		maxLot = DefaultMaxLot
	}
	raw := riskPercent / 100 * balance / lotBalanceUnit
	if math.IsNaN(raw) {
		raw = MinLot
	}
	lot := helper.Clamp(math.Max(raw, MinLot), MinLot, maxLot)
	return helper.Clamp(helper.Round(lot, 2), MinLot, maxLot)
}
