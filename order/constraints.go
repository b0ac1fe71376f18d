package order

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidOrder 订单字段不满足基本约束。
var ErrInvalidOrder = errors.New("invalid order")

// Constraints 描述参与者下单的最小数量与最小名义限制，0 表示不限制。
type Constraints struct {
	MinQty      float64
	MinNotional float64
}

// Validate 检查订单的基本字段，以及约束中的最小数量/名义。
func (c Constraints) Validate(o Order) error {
	if err := ValidateOrder(o); err != nil {
		return err
	}
	if c.MinQty > 0 && o.Quantity < c.MinQty {
		return fmt.Errorf("%w: qty %.8f < minQty %.8f", ErrInvalidOrder, o.Quantity, c.MinQty)
	}
	if c.MinNotional > 0 && o.Notional() < c.MinNotional {
		return fmt.Errorf("%w: notional %.8f < minNotional %.8f", ErrInvalidOrder, o.Notional(), c.MinNotional)
	}
	return nil
}

// ValidateOrder 检查方向、交易对、价格为正、数量非负且均为有限数。
func ValidateOrder(o Order) error {
	if o.Side != SideBid && o.Side != SideAsk {
		return fmt.Errorf("%w: side %q", ErrInvalidOrder, o.Side)
	}
	if o.Product.Base == "" || o.Product.Quote == "" {
		return fmt.Errorf("%w: product %q", ErrInvalidOrder, o.Product.String())
	}
	if !isFinite(o.Price) || o.Price <= 0 {
		return fmt.Errorf("%w: price %v", ErrInvalidOrder, o.Price)
	}
	if !isFinite(o.Quantity) || o.Quantity < 0 {
		return fmt.Errorf("%w: qty %v", ErrInvalidOrder, o.Quantity)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
