package inventory

import "market-replay-go/order"

// PositionView 单一交易对的仓位快照，金额以该交易对的 quote 计。
type PositionView struct {
	Net        float64 `json:"net"`
	AvgCost    float64 `json:"avgCost"`
	Volume     float64 `json:"volume"`
	Mark       float64 `json:"mark,omitempty"`
	Unrealized float64 `json:"unrealized"`
}

// Valuation 以标记价 mark 计算未实现盈亏；mark<=0（没有参考价）时盈亏记 0。
func (t *Tracker) Valuation(mark float64) (net float64, unrealized float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if mark <= 0 || t.net == 0 {
		return t.net, 0
	}
	return t.net, (mark - t.cost) * t.net
}

// Mark 用参考价为每个有过成交的交易对生成仓位快照。
func (p *Positions) Mark(refs map[order.Product]float64) map[order.Product]PositionView {
	prods := p.Products()
	if len(prods) == 0 {
		return nil
	}
	out := make(map[order.Product]PositionView, len(prods))
	for _, prod := range prods {
		t := p.Get(prod)
		mark := refs[prod]
		net, upnl := t.Valuation(mark)
		out[prod] = PositionView{
			Net:        net,
			AvgCost:    t.AvgCost(),
			Volume:     t.Volume(),
			Mark:       mark,
			Unrealized: upnl,
		}
	}
	return out
}

// PortfolioValue 组合按计价币折算的结果。
type PortfolioValue struct {
	Quote   string             `json:"quote"`
	Total   float64            `json:"total"`
	ByCcy   map[string]float64 `json:"byCcy"`
	Missing []string           `json:"missing,omitempty"` // 缺少 <CCY>/<Quote> 参考价的币种
}

// Value 以 quote（如 USDT）折算 total 视图：计价币按 1 计，
// 其他币种使用 "<CCY>/<quote>" 的参考价；缺少参考价的币种计 0 并记入 Missing。
func Value(b Balances, quote string, refPrices map[order.Product]float64) PortfolioValue {
	out := PortfolioValue{Quote: quote, ByCcy: make(map[string]float64)}
	for _, ccy := range b.Currencies() {
		amount := b.Total[ccy]
		if ccy == quote {
			out.ByCcy[ccy] = amount
			out.Total += amount
			continue
		}
		px, ok := refPrices[order.Product{Base: ccy, Quote: quote}]
		if !ok || px <= 0 {
			out.ByCcy[ccy] = 0
			if amount != 0 {
				out.Missing = append(out.Missing, ccy)
			}
			continue
		}
		out.ByCcy[ccy] = amount * px
		out.Total += amount * px
	}
	return out
}
