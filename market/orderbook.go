package market

import (
	"sort"

	"market-replay-go/order"
)

// OrderBook 某交易对在一个 tick 内的价格档位聚合（price -> qty），只用于统计，不参与撮合。
type OrderBook struct {
	bids map[float64]float64
	asks map[float64]float64
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids: make(map[float64]float64),
		asks: make(map[float64]float64),
	}
}

// Add 把订单剩余数量计入对应档位，已撤销订单忽略。
func (ob *OrderBook) Add(o order.Order) {
	if o.Status == order.StatusCanceled || o.Price <= 0 {
		return
	}
	switch o.Side {
	case order.SideBid:
		ob.bids[o.Price] += o.Quantity
	case order.SideAsk:
		ob.asks[o.Price] += o.Quantity
	}
}

// Best 返回最好买/卖价；若不存在则为 0。
func (ob *OrderBook) Best() (bestBid float64, bestAsk float64) {
	for p := range ob.bids {
		if p > bestBid {
			bestBid = p
		}
	}
	for p := range ob.asks {
		if bestAsk == 0 || p < bestAsk {
			bestAsk = p
		}
	}
	return bestBid, bestAsk
}

// Mid 返回中间价；若缺失任一侧返回 0。
func (ob *OrderBook) Mid() float64 {
	bid, ask := ob.Best()
	if bid == 0 || ask == 0 {
		return 0
	}
	return (bid + ask) / 2
}

// BidPrices 买档价格，降序。
func (ob *OrderBook) BidPrices() []float64 {
	out := keys(ob.bids)
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out
}

// AskPrices 卖档价格，升序。
func (ob *OrderBook) AskPrices() []float64 {
	out := keys(ob.asks)
	sort.Float64s(out)
	return out
}

func (ob *OrderBook) BidVolume(price float64) float64 { return ob.bids[price] }
func (ob *OrderBook) AskVolume(price float64) float64 { return ob.asks[price] }

// Volumes 返回两侧总量。
func (ob *OrderBook) Volumes() (bidQty, askQty float64) {
	for _, q := range ob.bids {
		bidQty += q
	}
	for _, q := range ob.asks {
		askQty += q
	}
	return bidQty, askQty
}

func keys(m map[float64]float64) []float64 {
	out := make([]float64, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	return out
}
