package order

// Trade is an immutable execution produced by the matcher.
//
// Price is always the ask's price. PriceDelta is bidPrice-askPrice, which lets
// settlement release the part of a bid reservation that price improvement left
// unused. AskIndex/BidIndex address the matched orders in the tick arena.
type Trade struct {
	Product    Product
	Price      float64
	Quantity   float64
	Timestamp  string
	PriceDelta float64
	AskIndex   int
	BidIndex   int
	AskOwner   string
	BidOwner   string
	AskID      uint64
	BidID      uint64
}

// BidPrice 还原撮合时买单的限价。
func (t Trade) BidPrice() float64 { return t.Price + t.PriceDelta }

// Notional 成交额（Quote 计，按卖方价格）。
func (t Trade) Notional() float64 { return t.Price * t.Quantity }

// SidesOf 返回该成交中属于 owner 的方向，自成交时两个方向都会返回。
func (t Trade) SidesOf(owner string) []Side {
	var sides []Side
	if t.BidOwner == owner {
		sides = append(sides, SideBid)
	}
	if t.AskOwner == owner {
		sides = append(sides, SideAsk)
	}
	return sides
}

// Involves 判断 owner 是否参与了该成交。
func (t Trade) Involves(owner string) bool {
	return t.BidOwner == owner || t.AskOwner == owner
}
