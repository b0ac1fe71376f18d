package strategy

import (
	"errors"
	"sort"

	"market-replay-go/market"
	"market-replay-go/order"
)

// View 策略在某 tick 可见的只读信息。
type View struct {
	Timestamp string
	Products  []order.Product
	Quotes    map[order.Product]market.Quote
	Forecasts map[order.Product]Forecast
}

// Policy 决定撤哪些结转单、下哪些新单。撮合与账本不依赖具体实现。
type Policy interface {
	// Cancellations 返回需要撤销的结转订单 ID。
	Cancellations(v View, carried []order.Order) []uint64
	// Proposals 返回待下订单（未冻结资金），先卖后买。
	Proposals(v View) []order.Order
}

// PolicyConfig 趋势跟随策略参数。
type PolicyConfig struct {
	OrderFraction float64 // 每笔下单量 = 初始可用余额 * OrderFraction
	AskThreshold  float64 // 预测低于 参考价*AskThreshold 才挂卖单
	EnableBids    bool
	EnableAsks    bool
	EnableCancel  bool
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{OrderFraction: 0.10, AskThreshold: 0.995, EnableBids: true, EnableAsks: true, EnableCancel: true}
}

// TrendPolicy 预测上涨时以最优卖价买入，预测下跌时以参考价卖出，
// 行情或预测与挂单价不符时撤销结转单。
type TrendPolicy struct {
	cfg            PolicyConfig
	standardAmount map[string]float64
}

// NewTrendPolicy 按初始可用余额计算各币种的标准下单量。
func NewTrendPolicy(cfg PolicyConfig, initialStandard map[string]float64) (*TrendPolicy, error) {
	if cfg.OrderFraction <= 0 || cfg.OrderFraction > 1 {
		return nil, errors.New("orderFraction must be in (0,1]")
	}
	if cfg.AskThreshold <= 0 {
		return nil, errors.New("askThreshold must be > 0")
	}
	amounts := make(map[string]float64, len(initialStandard))
	for ccy, bal := range initialStandard {
		amounts[ccy] = cfg.OrderFraction * bal
	}
	return &TrendPolicy{cfg: cfg, standardAmount: amounts}, nil
}

// StandardAmount 返回币种的标准下单量。
func (p *TrendPolicy) StandardAmount(ccy string) float64 { return p.standardAmount[ccy] }

func (p *TrendPolicy) Cancellations(v View, carried []order.Order) []uint64 {
	if !p.cfg.EnableCancel {
		return nil
	}
	var ids []uint64
	for _, o := range carried {
		fc, ok := v.Forecasts[o.Product]
		if !ok || !fc.OK {
			continue
		}
		q := v.Quotes[o.Product]
		switch o.Side {
		case order.SideAsk:
			if (q.HasBid && o.Price < q.BestBid) || o.Price < fc.Value {
				ids = append(ids, o.ID)
			}
		case order.SideBid:
			if (q.HasAsk && o.Price > q.BestAsk) || o.Price > fc.Value {
				ids = append(ids, o.ID)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (p *TrendPolicy) Proposals(v View) []order.Order {
	var out []order.Order
	if p.cfg.EnableAsks {
		for _, prod := range v.Products {
			if o, ok := p.ask(v, prod); ok {
				out = append(out, o)
			}
		}
	}
	if p.cfg.EnableBids {
		for _, prod := range v.Products {
			if o, ok := p.bid(v, prod); ok {
				out = append(out, o)
			}
		}
	}
	return out
}

func (p *TrendPolicy) ask(v View, prod order.Product) (order.Order, bool) {
	fc, ok := v.Forecasts[prod]
	if !ok || !fc.OK {
		return order.Order{}, false
	}
	ref, ok := v.Quotes[prod].Reference()
	if !ok {
		return order.Order{}, false
	}
	if !(fc.Value < p.cfg.AskThreshold*ref && ref > fc.Value) {
		return order.Order{}, false
	}
	return order.Order{
		Product:   prod,
		Side:      order.SideAsk,
		Price:     ref,
		Quantity:  p.standardAmount[prod.Base],
		Timestamp: v.Timestamp,
	}, true
}

func (p *TrendPolicy) bid(v View, prod order.Product) (order.Order, bool) {
	fc, ok := v.Forecasts[prod]
	if !ok || !fc.OK {
		return order.Order{}, false
	}
	q := v.Quotes[prod]
	ref, ok := q.Reference()
	if !ok || !q.HasAsk {
		return order.Order{}, false
	}
	price := q.BestAsk
	if !(fc.Value > ref && price > 0 && price < fc.Value) {
		return order.Order{}, false
	}
	return order.Order{
		Product:   prod,
		Side:      order.SideBid,
		Price:     price,
		Quantity:  p.standardAmount[prod.Base],
		Timestamp: v.Timestamp,
	}, true
}
