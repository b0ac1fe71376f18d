package matching

import (
	"errors"
	"fmt"
	"sort"

	"market-replay-go/order"
)

// ErrDoubleMatch 同一 tick 内同一交易对被撮合两次，订单数量会被重复扣减。
var ErrDoubleMatch = errors.New("product matched twice in one tick")

// Result 单个交易对一次撮合的输出。
type Result struct {
	Trades []order.Trade
	// Unresolved 参与者未完全成交的订单槽位，卖单按价格顺序在前，买单在后，每个只出现一次。
	Unresolved []int
	AskQty     float64 // 参与撮合的卖单总量
	BidQty     float64 // 参与撮合的买单总量
}

// TradedQty 返回本次成交总量。
func (r Result) TradedQty() float64 {
	var q float64
	for _, t := range r.Trades {
		q += t.Quantity
	}
	return q
}

// Match 按价格优先撮合 arena 中某交易对的全部订单。
//
// 已撤销或数量为 0 的订单不参与。卖单价格升序、买单价格降序（稳定排序，
// 同价保持加入顺序），外层遍历卖单、内层遍历买单；成交价取卖单价格，
// PriceDelta 记录买价与卖价之差。participant 名下剩余数量大于 0 的订单
// 记入 Unresolved。
func Match(a *Arena, p order.Product, timestamp, participant string) Result {
	if a.matched[p] {
		panic(fmt.Errorf("%w: %s at %s", ErrDoubleMatch, p, timestamp))
	}
	a.matched[p] = true

	var res Result
	var asks, bids []int
	for _, idx := range a.byProduct[p] {
		o := a.Get(idx)
		if o.Status == order.StatusCanceled || o.Quantity <= 0 {
			continue
		}
		switch o.Side {
		case order.SideAsk:
			asks = append(asks, idx)
			res.AskQty += o.Quantity
		case order.SideBid:
			bids = append(bids, idx)
			res.BidQty += o.Quantity
		}
	}
	sort.SliceStable(asks, func(i, j int) bool { return a.Get(asks[i]).Price < a.Get(asks[j]).Price })
	sort.SliceStable(bids, func(i, j int) bool { return a.Get(bids[i]).Price > a.Get(bids[j]).Price })

	for _, ai := range asks {
		ask := a.Get(ai)
		for _, bi := range bids {
			bid := a.Get(bi)
			if bid.Quantity == 0 {
				continue
			}
			// 买单降序，之后的买单都无法与该卖单成交
			if bid.Price < ask.Price {
				break
			}
			qty := ask.Quantity
			if bid.Quantity < qty {
				qty = bid.Quantity
			}
			res.Trades = append(res.Trades, order.Trade{
				Product:    p,
				Price:      ask.Price,
				Quantity:   qty,
				Timestamp:  timestamp,
				PriceDelta: bid.Price - ask.Price,
				AskIndex:   ai,
				BidIndex:   bi,
				AskOwner:   ask.Owner,
				BidOwner:   bid.Owner,
				AskID:      ask.ID,
				BidID:      bid.ID,
			})
			ask.Quantity -= qty
			bid.Quantity -= qty
			if ask.Quantity == 0 {
				break
			}
		}
		if ask.IsOwnedBy(participant) && ask.Quantity > 0 {
			res.Unresolved = append(res.Unresolved, ai)
		}
	}
	for _, bi := range bids {
		bid := a.Get(bi)
		if bid.IsOwnedBy(participant) && bid.Quantity > 0 {
			res.Unresolved = append(res.Unresolved, bi)
		}
	}
	return res
}

// MatchAll 依次撮合 arena 中的所有交易对，products 为空时按交易对名称排序。
func MatchAll(a *Arena, products []order.Product, timestamp, participant string) map[order.Product]Result {
	if len(products) == 0 {
		products = append(products, a.Products()...)
		sort.Slice(products, func(i, j int) bool { return products[i].String() < products[j].String() })
	}
	out := make(map[order.Product]Result, len(products))
	for _, p := range products {
		out[p] = Match(a, p, timestamp, participant)
	}
	return out
}
