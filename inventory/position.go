package inventory

import (
	"sort"
	"sync"

	"market-replay-go/order"
)

// Tracker 维护单一交易对的净仓位（base 计）与加权平均成本（quote 计）。
type Tracker struct {
	mu     sync.RWMutex
	net    float64
	cost   float64
	volume float64
	trades int
}

// Update 根据成交数量调整仓位，买入 deltaQty 为正、卖出为负。
func (t *Tracker) Update(deltaQty float64, price float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trades++
	if deltaQty < 0 {
		t.volume -= deltaQty
	} else {
		t.volume += deltaQty
	}
	// 仓位方向翻转或减仓时成本不变，仅加仓时重新加权
	next := t.net + deltaQty
	switch {
	case next == 0:
		t.cost = 0
	case t.net == 0 || (t.net > 0) != (next > 0):
		t.cost = price
	case (t.net > 0) == (deltaQty > 0):
		t.cost = (t.cost*t.net + price*deltaQty) / next
	}
	t.net = next
}

func (t *Tracker) NetExposure() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.net
}

func (t *Tracker) AvgCost() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cost
}

// Volume 返回累计成交量（base 计，双向相加）。
func (t *Tracker) Volume() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.volume
}

// Positions 按交易对汇总参与者的成交仓位。
type Positions struct {
	mu       sync.RWMutex
	trackers map[order.Product]*Tracker
}

func NewPositions() *Positions {
	return &Positions{trackers: make(map[order.Product]*Tracker)}
}

// Apply 记录参与者在成交中某一方向的仓位变化。
func (p *Positions) Apply(tr order.Trade, side order.Side) {
	delta := tr.Quantity
	if side == order.SideAsk {
		delta = -delta
	}
	p.tracker(tr.Product).Update(delta, tr.Price)
}

// Get 返回交易对的 Tracker，不存在时为 nil。
func (p *Positions) Get(prod order.Product) *Tracker {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trackers[prod]
}

// Products 返回有成交的交易对，按名称排序。
func (p *Positions) Products() []order.Product {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]order.Product, 0, len(p.trackers))
	for prod := range p.trackers {
		out = append(out, prod)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (p *Positions) tracker(prod order.Product) *Tracker {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.trackers[prod]
	if !ok {
		t = &Tracker{}
		p.trackers[prod] = t
	}
	return t
}

// NetExposure 返回交易对的净仓位，未成交过为 0。
func (p *Positions) NetExposure(prod order.Product) float64 {
	if t := p.Get(prod); t != nil {
		return t.NetExposure()
	}
	return 0
}
