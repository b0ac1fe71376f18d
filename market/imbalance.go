package market

// CalculateImbalance 盘口不平衡度 (bid-ask)/(bid+ask)，取值 [-1,1]，两侧都为 0 时返回 0。
func CalculateImbalance(bidQty, askQty float64) float64 {
	total := bidQty + askQty
	if total == 0 {
		return 0
	}
	return (bidQty - askQty) / total
}

// TopVolumes 返回买卖两侧最优 levels 档的累计数量。
func (ob *OrderBook) TopVolumes(levels int) (bidQty, askQty float64) {
	for i, p := range ob.BidPrices() {
		if i >= levels {
			break
		}
		bidQty += ob.bids[p]
	}
	for i, p := range ob.AskPrices() {
		if i >= levels {
			break
		}
		askQty += ob.asks[p]
	}
	return bidQty, askQty
}

// CalculateImbalanceFromOrderBook 用最优 levels 档计算不平衡度，book 为 nil 或 levels<=0 时为 0。
func CalculateImbalanceFromOrderBook(book *OrderBook, levels int) float64 {
	if book == nil || levels <= 0 {
		return 0
	}
	return CalculateImbalance(book.TopVolumes(levels))
}
