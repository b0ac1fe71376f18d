package posttrade

import (
	"sync"

	"market-replay-go/order"
)

// FillRecord represents one participant side of a trade.
type FillRecord struct {
	Product        order.Product
	Side           order.Side
	FillPrice      float64
	Quantity       float64
	Timestamp      string
	FillTick       int
	PriceAfterNext float64 // 下一 tick 的参考价
	PriceAfterN    float64 // lookahead 个 tick 之后的参考价
	hasNext        bool
	hasN           bool
}

// Stats contains statistics computed by the analyzer
type Stats struct {
	AdverseSelectionRate float64 `json:"adverseSelectionRate"`
	AvgPnLNext           float64 `json:"avgPnLNext"`
	AvgPnLN              float64 `json:"avgPnLN"`
	TotalFills           int     `json:"totalFills"`
	AnalyzedFills        int     `json:"analyzedFills"`
}

// Analyzer 统计参与者成交后的参考价走势（逆向选择）与各币种的累计成交影响。
// 以 tick 为时间单位，由 driver 每个 tick 调用一次 OnTick。
type Analyzer struct {
	mu          sync.RWMutex
	lookahead   int
	tick        int
	fills       []*FillRecord
	pending     []*FillRecord
	salesImpact map[string]float64
}

// NewAnalyzer creates a new post-trade analyzer; lookahead < 1 is treated as 1.
func NewAnalyzer(lookahead int) *Analyzer {
	if lookahead < 1 {
		lookahead = 1
	}
	return &Analyzer{
		lookahead:   lookahead,
		salesImpact: make(map[string]float64),
	}
}

// OnFill records a participant fill and its impact on balances:
// 买方 base +qty、quote -qty*price；卖方相反。
func (a *Analyzer) OnFill(t order.Trade, side order.Side) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := &FillRecord{
		Product:   t.Product,
		Side:      side,
		FillPrice: t.Price,
		Quantity:  t.Quantity,
		Timestamp: t.Timestamp,
		FillTick:  a.tick,
	}
	a.fills = append(a.fills, rec)
	a.pending = append(a.pending, rec)

	sign := 1.0
	if side == order.SideAsk {
		sign = -1
	}
	a.salesImpact[t.Product.Base] += sign * t.Quantity
	a.salesImpact[t.Product.Quote] -= sign * t.Notional()
}

// OnTick 推进一个 tick，并用本 tick 的参考价补齐未完成的记录。
func (a *Analyzer) OnTick(refs map[order.Product]float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.tick++
	kept := a.pending[:0]
	for _, rec := range a.pending {
		ref, ok := refs[rec.Product]
		elapsed := a.tick - rec.FillTick
		if ok && ref > 0 {
			if !rec.hasNext && elapsed >= 1 {
				rec.PriceAfterNext, rec.hasNext = ref, true
			}
			if !rec.hasN && elapsed >= a.lookahead {
				rec.PriceAfterN, rec.hasN = ref, true
			}
		}
		if !rec.hasNext || !rec.hasN {
			kept = append(kept, rec)
		}
	}
	a.pending = kept
}

// Stats computes and returns statistics
func (a *Analyzer) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := Stats{
		TotalFills: len(a.fills),
	}

	var adverseCount, analyzedCount int
	var totalPnLNext, totalPnLN float64

	for _, record := range a.fills {
		if !record.hasNext || !record.hasN || record.FillPrice == 0 {
			continue
		}

		analyzedCount++

		// 正值表示成交后价格朝有利方向移动
		var pnlNext, pnlN float64
		if record.Side == order.SideBid {
			pnlNext = (record.PriceAfterNext - record.FillPrice) / record.FillPrice
			pnlN = (record.PriceAfterN - record.FillPrice) / record.FillPrice
		} else {
			pnlNext = (record.FillPrice - record.PriceAfterNext) / record.FillPrice
			pnlN = (record.FillPrice - record.PriceAfterN) / record.FillPrice
		}

		totalPnLNext += pnlNext
		totalPnLN += pnlN

		if pnlNext < 0 {
			adverseCount++
		}
	}

	stats.AnalyzedFills = analyzedCount
	if analyzedCount > 0 {
		stats.AdverseSelectionRate = float64(adverseCount) / float64(analyzedCount)
		stats.AvgPnLNext = totalPnLNext / float64(analyzedCount)
		stats.AvgPnLN = totalPnLN / float64(analyzedCount)
	}

	return stats
}

// SalesImpact 返回各币种累计成交影响的拷贝。
func (a *Analyzer) SalesImpact() map[string]float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]float64, len(a.salesImpact))
	for k, v := range a.salesImpact {
		out[k] = v
	}
	return out
}

// Fills 返回全部成交记录的拷贝，按成交顺序。
func (a *Analyzer) Fills() []FillRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]FillRecord, 0, len(a.fills))
	for _, r := range a.fills {
		out = append(out, *r)
	}
	return out
}
