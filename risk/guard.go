package risk

import "market-replay-go/order"

// Guard 在参与者订单冻结资金前做额外校验，返回错误则该单被跳过。
type Guard interface {
	PreOrder(o order.Order) error
}

// MultiGuard 顺序执行多个 Guard，只要有一个返回错误则中止。
type MultiGuard struct {
	Guards []Guard
}

func (m MultiGuard) PreOrder(o order.Order) error {
	for _, g := range m.Guards {
		if g == nil {
			continue
		}
		if err := g.PreOrder(o); err != nil {
			return err
		}
	}
	return nil
}
