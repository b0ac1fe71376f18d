package risk

import (
	"fmt"

	"market-replay-go/order"
)

// Limits 配置，0 表示不限制。数量均以 base 计。
type Limits struct {
	SingleMax float64 // 单笔最大数量
	RunMax    float64 // 单个交易对整个回放期间累计下单量上限
	NetMax    float64 // 单个交易对净仓位上限
}

// Enabled 是否配置了任一限制。
func (l Limits) Enabled() bool {
	return l.SingleMax > 0 || l.RunMax > 0 || l.NetMax > 0
}

// Inventory 提供净仓位。
type Inventory interface {
	NetExposure(p order.Product) float64
}

// LimitChecker 维护累计下单量与净敞口校验。
type LimitChecker struct {
	cfg    Limits
	inv    Inventory
	runVol map[order.Product]float64
}

func NewLimitChecker(cfg Limits, inv Inventory) *LimitChecker {
	return &LimitChecker{
		cfg:    cfg,
		inv:    inv,
		runVol: make(map[order.Product]float64),
	}
}

// PreOrder 校验下单前约束，通过后才计入累计下单量。
func (lc *LimitChecker) PreOrder(o order.Order) error {
	qty := o.Quantity
	if lc.cfg.SingleMax > 0 && qty > lc.cfg.SingleMax {
		return fmt.Errorf("%w: %.8f > single %.8f", ErrSingleExceed, qty, lc.cfg.SingleMax)
	}
	if lc.cfg.RunMax > 0 && lc.runVol[o.Product]+qty > lc.cfg.RunMax {
		return fmt.Errorf("%w: %.8f > run %.8f", ErrRunExceed, lc.runVol[o.Product]+qty, lc.cfg.RunMax)
	}
	if lc.inv != nil && lc.cfg.NetMax > 0 {
		delta := qty
		if o.Side == order.SideAsk {
			delta = -qty
		}
		net := lc.inv.NetExposure(o.Product) + delta
		if abs(net) > lc.cfg.NetMax {
			return fmt.Errorf("%w: %.8f > net %.8f", ErrNetExceed, net, lc.cfg.NetMax)
		}
	}
	lc.runVol[o.Product] += qty
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
