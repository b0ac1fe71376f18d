package market

import (
	"sort"

	"market-replay-go/order"
)

// Quote 单个交易对在某 tick 的行情统计。HasBid/HasAsk 表示该侧价格有效（本 tick
// 或此前任一 tick 出现过），BidStale/AskStale 表示沿用了上一个已知价格。
type Quote struct {
	Product   order.Product `json:"product"`
	Timestamp string        `json:"timestamp"`
	BestBid   float64       `json:"bestBid"`
	BestAsk   float64       `json:"bestAsk"`
	HasBid    bool          `json:"hasBid"`
	HasAsk    bool          `json:"hasAsk"`
	BidStale  bool          `json:"bidStale,omitempty"`
	AskStale  bool          `json:"askStale,omitempty"`
	BidQty    float64       `json:"bidQty"`
	AskQty    float64       `json:"askQty"`
	Imbalance float64       `json:"imbalance"`
}

// Reference 参考价：最优卖价低于最优买价（撮合前交叉）时取卖价，否则取中间价。
// 任一侧从未出现过时返回 ok=false。
func (q Quote) Reference() (float64, bool) {
	if !q.HasBid || !q.HasAsk {
		return 0, false
	}
	if q.BestAsk < q.BestBid {
		return q.BestAsk, true
	}
	return (q.BestAsk + q.BestBid) / 2, true
}

// Spread 返回 ask-bid，任一侧缺失时 ok=false。
func (q Quote) Spread() (float64, bool) {
	if !q.HasBid || !q.HasAsk {
		return 0, false
	}
	return q.BestAsk - q.BestBid, true
}

// ImbalanceLevels 计算盘口不平衡度时使用的档位数。
const ImbalanceLevels = 5

// QuoteBoard 按交易对维护行情统计，并保留各侧最后一次已知价格。
type QuoteBoard struct {
	last map[order.Product]Quote
}

func NewQuoteBoard() *QuoteBoard {
	return &QuoteBoard{last: make(map[order.Product]Quote)}
}

// Refresh 用本 tick 的订单更新所有已知交易对的统计；某侧本 tick 无订单时沿用上一个已知价格。
func (b *QuoteBoard) Refresh(ts string, products []order.Product, orders []order.Order) map[order.Product]Quote {
	books := make(map[order.Product]*OrderBook, len(products))
	for _, p := range products {
		books[p] = NewOrderBook()
	}
	for _, o := range orders {
		ob, ok := books[o.Product]
		if !ok {
			ob = NewOrderBook()
			books[o.Product] = ob
		}
		ob.Add(o)
	}

	out := make(map[order.Product]Quote, len(books))
	for p, ob := range books {
		prev := b.last[p]
		q := Quote{Product: p, Timestamp: ts}
		bid, ask := ob.Best()
		if bid > 0 {
			q.BestBid, q.HasBid = bid, true
		} else if prev.HasBid {
			q.BestBid, q.HasBid, q.BidStale = prev.BestBid, true, true
		}
		if ask > 0 {
			q.BestAsk, q.HasAsk = ask, true
		} else if prev.HasAsk {
			q.BestAsk, q.HasAsk, q.AskStale = prev.BestAsk, true, true
		}
		q.BidQty, q.AskQty = ob.Volumes()
		q.Imbalance = CalculateImbalanceFromOrderBook(ob, ImbalanceLevels)
		b.last[p] = q
		out[p] = q
	}
	return out
}

// Last 返回交易对最近一次统计。
func (b *QuoteBoard) Last(p order.Product) (Quote, bool) {
	q, ok := b.last[p]
	return q, ok
}

// References 返回所有可用的参考价。
func (b *QuoteBoard) References() map[order.Product]float64 {
	out := make(map[order.Product]float64, len(b.last))
	for p, q := range b.last {
		if ref, ok := q.Reference(); ok {
			out[p] = ref
		}
	}
	return out
}

// SortProducts 按 "BASE/QUOTE" 字符串排序。
func SortProducts(ps []order.Product) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].String() < ps[j].String() })
}
