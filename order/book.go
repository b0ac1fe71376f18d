package order

import "sort"

// Book 记录参与者已终结（成交/撤销）的订单，支持按 ID 查询。
type Book struct {
	orders map[uint64]Order
}

func NewBook() *Book {
	return &Book{orders: make(map[uint64]Order)}
}

func (b *Book) Set(o Order) {
	b.orders[o.ID] = o
}

func (b *Book) Get(id uint64) (Order, bool) {
	o, ok := b.orders[id]
	return o, ok
}

func (b *Book) Len() int { return len(b.orders) }

// List 返回全部订单（拷贝），按 ID 升序。
func (b *Book) List() []Order {
	res := make([]Order, 0, len(b.orders))
	for _, o := range b.orders {
		res = append(res, o)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// CountByStatus 统计各终态订单数量。
func (b *Book) CountByStatus() map[Status]int {
	out := make(map[Status]int)
	for _, o := range b.orders {
		out[o.Status]++
	}
	return out
}
