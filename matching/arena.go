package matching

import "market-replay-go/order"

// Arena 单个 tick 内所有订单的存储槽位，撮合与结算均通过下标访问，
// 成交记录中的 AskIndex/BidIndex 即槽位下标。
type Arena struct {
	slots     []order.Order
	byProduct map[order.Product][]int
	products  []order.Product
	matched   map[order.Product]bool
}

// NewArena 创建 Arena，capacity 为预估订单数。
func NewArena(capacity int) *Arena {
	return &Arena{
		slots:     make([]order.Order, 0, capacity),
		byProduct: make(map[order.Product][]int),
		matched:   make(map[order.Product]bool),
	}
}

// Add 追加订单并返回其槽位下标。
func (a *Arena) Add(o order.Order) int {
	idx := len(a.slots)
	a.slots = append(a.slots, o)
	if _, ok := a.byProduct[o.Product]; !ok {
		a.products = append(a.products, o.Product)
	}
	a.byProduct[o.Product] = append(a.byProduct[o.Product], idx)
	return idx
}

// Get 返回槽位指针，撮合会原地修改其剩余数量。
func (a *Arena) Get(idx int) *order.Order { return &a.slots[idx] }

func (a *Arena) Len() int { return len(a.slots) }

// Indexes 返回某交易对的槽位下标（按加入顺序）。
func (a *Arena) Indexes(p order.Product) []int { return a.byProduct[p] }

// Products 返回出现过的交易对，按首次加入顺序。
func (a *Arena) Products() []order.Product { return a.products }

// Reset 清空槽位以便下一 tick 复用底层数组。
func (a *Arena) Reset() {
	a.slots = a.slots[:0]
	a.products = a.products[:0]
	for k := range a.byProduct {
		delete(a.byProduct, k)
	}
	for k := range a.matched {
		delete(a.matched, k)
	}
}
