package market

import (
	"market-replay-go/order"
)

// Dataset 按时间戳分组的历史订单，加载后只读。
type Dataset struct {
	byTime   map[string][]order.Order
	products map[order.Product]struct{}
	clock    *Clock
	count    int
}

func NewDataset() *Dataset {
	return &Dataset{
		byTime:   make(map[string][]order.Order),
		products: make(map[order.Product]struct{}),
		clock:    NewClock(nil, false),
	}
}

// Add 追加一条历史订单，保持同一时间戳内的到达顺序。
func (d *Dataset) Add(o order.Order) {
	if o.Owner == "" {
		o.Owner = order.DatasetOwner
	}
	if o.Status == "" {
		o.Status = order.StatusLive
	}
	d.byTime[o.Timestamp] = append(d.byTime[o.Timestamp], o)
	d.products[o.Product] = struct{}{}
	d.clock.Add(o.Timestamp)
	d.count++
}

// OrdersAt 返回某时间戳的订单拷贝，撮合会修改数量，调用方拿到的是独立副本。
func (d *Dataset) OrdersAt(ts string) []order.Order {
	src := d.byTime[ts]
	out := make([]order.Order, len(src))
	copy(out, src)
	return out
}

// Products 返回全部交易对，按名称排序。
func (d *Dataset) Products() []order.Product {
	out := make([]order.Product, 0, len(d.products))
	for p := range d.products {
		out = append(out, p)
	}
	SortProducts(out)
	return out
}

// Timestamps 返回全部时间戳，升序去重。
func (d *Dataset) Timestamps() []string { return d.clock.All() }

// Clock 返回数据集时间戳构成的时钟，wrap 决定是否循环。
func (d *Dataset) Clock(wrap bool) *Clock {
	return NewClock(d.clock.All(), wrap)
}

// Len 返回订单总数。
func (d *Dataset) Len() int { return d.count }
