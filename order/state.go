package order

import (
	"fmt"
	"strings"
)

// Status represents order lifecycle.
type Status string

const (
	StatusNew       Status = "new"
	StatusLive      Status = "live"
	StatusCarryover Status = "carryover"
	StatusCanceled  Status = "cancelled"
	StatusPartial   Status = "filled-partial"
	StatusFilled    Status = "filled-full"
)

// Side 买卖方向。
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// ParseSide 解析数据集中的方向字段，大小写不敏感。
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bid":
		return SideBid, nil
	case "ask":
		return SideAsk, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// DatasetOwner 是历史数据行的默认提交者。
const DatasetOwner = "dataset"

// Product 交易对，Base/Quote，价格以 Quote 计价、数量以 Base 计。
type Product struct {
	Base  string
	Quote string
}

// ParseProduct 解析 "ETH/BTC" 形式的交易对。
func ParseProduct(s string) (Product, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Product{}, fmt.Errorf("invalid product %q", s)
	}
	return Product{Base: parts[0], Quote: parts[1]}, nil
}

// MustProduct 用于测试与常量构造。
func MustProduct(s string) Product {
	p, err := ParseProduct(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Product) String() string { return p.Base + "/" + p.Quote }

// Order holds a limit instruction. Quantity is the remaining quantity and is
// decremented in place by the matcher.
type Order struct {
	ID        uint64 // 仅模拟参与者的订单有 ID，数据集订单为 0
	Product   Product
	Side      Side
	Price     float64
	Quantity  float64
	Timestamp string
	Owner     string
	Status    Status
}

// Notional 返回 price*quantity（Quote 计）。
func (o Order) Notional() float64 { return o.Price * o.Quantity }

// Reserved 返回该订单应冻结的币种与数量：买单冻结 Quote，卖单冻结 Base。
func (o Order) Reserved() (currency string, amount float64) {
	if o.Side == SideBid {
		return o.Product.Quote, o.Quantity * o.Price
	}
	return o.Product.Base, o.Quantity
}

// IsOwnedBy 判断订单是否属于指定提交者。
func (o Order) IsOwnedBy(owner string) bool { return o.Owner == owner }

// MarshalText 使 Product 可作为 JSON map 的键。
func (p Product) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Product) UnmarshalText(b []byte) error {
	parsed, err := ParseProduct(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
