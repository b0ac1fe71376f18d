package config

import (
	"market-replay-go/order"
	"market-replay-go/risk"
	"market-replay-go/sim"
	"market-replay-go/strategy"
)

// RunnerConfig 转换为 sim.RunnerConfig。
func (c AppConfig) RunnerConfig() sim.RunnerConfig {
	return sim.RunnerConfig{
		Participant:  c.Participant.Name,
		InitialFunds: c.Participant.InitialFunds,
		Valuation:    c.Participant.Valuation,
		PolicyType:   c.Policy.Type,
		Policy: strategy.PolicyConfig{
			OrderFraction: c.Policy.OrderFraction,
			AskThreshold:  c.Policy.AskThreshold,
			EnableBids:    enabled(c.Policy.EnableBids),
			EnableAsks:    enabled(c.Policy.EnableAsks),
			EnableCancel:  enabled(c.Policy.EnableCancel),
		},
		Forecast: strategy.ForecastConfig{Window: c.Forecast.Window, Horizon: c.Forecast.Horizon},
		Wrap:     c.Clock.Wrap,
		Limits: risk.Limits{
			SingleMax: c.Risk.SingleMax,
			RunMax:    c.Risk.RunMax,
			NetMax:    c.Risk.NetMax,
		},
		Constraints: order.Constraints{
			MinQty:      c.Participant.MinQty,
			MinNotional: c.Participant.MinNotional,
		},
		Lookahead: c.PostTrade.Lookahead,
	}
}

func enabled(b *bool) bool { return b == nil || *b }
