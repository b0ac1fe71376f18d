package config

import (
	"fmt"
	"math"

	"market-replay-go/order"
)

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }

// Validate ensures required fields are present and numeric parameters are in range.
// dataset.path 可由命令行或环境变量补上，这里不强制。
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return ErrInvalid("env is required")
	}
	if cfg.Participant.Name == "" {
		return ErrInvalid("participant.name is required")
	}
	if cfg.Participant.Name == order.DatasetOwner {
		return ErrInvalid(fmt.Sprintf("participant.name %q is reserved", order.DatasetOwner))
	}
	if cfg.Participant.Valuation == "" {
		return ErrInvalid("participant.valuation is required")
	}
	for ccy, v := range cfg.Participant.InitialFunds {
		if ccy == "" {
			return ErrInvalid("participant.initialFunds has empty currency")
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalid(fmt.Sprintf("participant.initialFunds.%s must be a finite value >= 0", ccy))
		}
	}
	if cfg.Participant.MinQty < 0 || cfg.Participant.MinNotional < 0 {
		return ErrInvalid("participant minQty/minNotional must be >= 0")
	}
	switch cfg.Policy.Type {
	case "", "trend", "passive":
	default:
		return ErrInvalid(fmt.Sprintf("policy.type %q unknown", cfg.Policy.Type))
	}
	if cfg.Policy.OrderFraction <= 0 || cfg.Policy.OrderFraction > 1 {
		return ErrInvalid("policy.orderFraction must be in (0,1]")
	}
	if cfg.Policy.AskThreshold <= 0 {
		return ErrInvalid("policy.askThreshold must be > 0")
	}
	if cfg.Forecast.Window < 2 {
		return ErrInvalid("forecast.window must be >= 2")
	}
	if cfg.Forecast.Horizon < 0 {
		return ErrInvalid("forecast.horizon must be >= 0")
	}
	if cfg.Risk.SingleMax < 0 || cfg.Risk.RunMax < 0 || cfg.Risk.NetMax < 0 {
		return ErrInvalid("risk limits must be >= 0")
	}
	if cfg.PostTrade.Lookahead < 0 {
		return ErrInvalid("posttrade.lookahead must be >= 0")
	}
	if cfg.Stream.Enabled && cfg.Metrics.Addr == "" {
		return ErrInvalid("stream.enabled requires metrics.addr")
	}
	return nil
}
