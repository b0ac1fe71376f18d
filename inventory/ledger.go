package inventory

import (
	"fmt"
	"sort"

	"market-replay-go/order"
)

// Ledger 维护参与者的可用（standard）与冻结（reserved）两个资金池，
// total 为两者之和的只读投影，每次变动后重建。
//
// Ledger 不加锁，只能由 sim driver 单线程访问；对外暴露的是 Snapshot 拷贝。
type Ledger struct {
	standard *Wallet
	reserved *Wallet
	total    map[string]float64
}

func NewLedger() *Ledger {
	return &Ledger{
		standard: NewWallet(),
		reserved: NewWallet(),
		total:    make(map[string]float64),
	}
}

// NewLedgerWithFunds 用初始可用余额创建账本。
func NewLedgerWithFunds(initial map[string]float64) *Ledger {
	l := NewLedger()
	ccys := make([]string, 0, len(initial))
	for ccy := range initial {
		ccys = append(ccys, ccy)
	}
	sort.Strings(ccys)
	for _, ccy := range ccys {
		l.Credit(ccy, initial[ccy])
	}
	return l
}

func (l *Ledger) Standard(ccy string) float64 { return l.standard.Balance(ccy) }
func (l *Ledger) Reserved(ccy string) float64 { return l.reserved.Balance(ccy) }
func (l *Ledger) Total(ccy string) float64    { return l.total[ccy] }

// Credit 增加可用余额。
func (l *Ledger) Credit(ccy string, amount float64) {
	l.standard.Credit(ccy, amount)
	l.rebuild(ccy)
}

// Debit 扣减可用余额，不足返回 false。
func (l *Ledger) Debit(ccy string, amount float64) bool {
	if !l.standard.Debit(ccy, amount) {
		return false
	}
	l.rebuild(ccy)
	return true
}

// Reserve 从可用足额划转到冻结，两边变动同一数量；可用不足时不做任何修改。
// 这里不使用容差，否则截断会凭空多出冻结资金。
func (l *Ledger) Reserve(ccy string, amount float64) bool {
	if !l.standard.Take(ccy, amount) {
		return false
	}
	l.reserved.Credit(ccy, amount)
	l.rebuild(ccy)
	return true
}

// Release 从冻结划回可用，冻结不足（超出容差）时不做任何修改。
// 容差截断时只划回实际扣掉的数量，total 不变。
func (l *Ledger) Release(ccy string, amount float64) bool {
	moved, ok := l.reserved.Withdraw(ccy, amount)
	if !ok {
		return false
	}
	l.standard.Credit(ccy, moved)
	l.rebuild(ccy)
	return true
}

// CanAfford 卖单检查 base 可用 >= qty，买单检查 quote 可用 >= qty*price。
// 仅为建议性检查，调用方需随后 Reserve。
func (l *Ledger) CanAfford(o order.Order) bool {
	ccy, amount := o.Reserved()
	return l.standard.Covers(ccy, amount)
}

// ReserveOrder 冻结订单所需资金。
func (l *Ledger) ReserveOrder(o order.Order) bool {
	ccy, amount := o.Reserved()
	return l.Reserve(ccy, amount)
}

// ReleaseOrder 按订单自身的价格与剩余数量释放冻结资金（撤单）。
// 冻结不足说明账实不符，直接 panic。
func (l *Ledger) ReleaseOrder(o order.Order) {
	ccy, amount := o.Reserved()
	if !l.Release(ccy, amount) {
		panic(fmt.Errorf("%w: release %s %v for order %d exceeds reserved %v",
			ErrNegativeBalance, ccy, amount, o.ID, l.reserved.Balance(ccy)))
	}
}

// Settle 对参与者一方结算一笔成交。
//
// 买方：base 入账 qty；quote 冻结按原限价扣除 qty*bidPrice，实际扣掉的部分
// 超出成交额 qty*price 的差额（价格改善）退回可用。卖方：quote 入账 qty*price；base 冻结扣除 qty。
func (l *Ledger) Settle(t order.Trade, side order.Side) {
	base, quote := t.Product.Base, t.Product.Quote
	switch side {
	case order.SideBid:
		taken := l.mustTakeReserved(quote, t.Quantity*t.BidPrice())
		if refund := taken - t.Notional(); refund > 0 {
			l.standard.Credit(quote, refund)
		}
		l.standard.Credit(base, t.Quantity)
	case order.SideAsk:
		l.mustTakeReserved(base, t.Quantity)
		l.standard.Credit(quote, t.Notional())
	default:
		panic(fmt.Errorf("settle: unknown side %q", side))
	}
	l.rebuild(base)
	l.rebuild(quote)
}

// mustTakeReserved 按容差从冻结扣减，返回实际扣掉的数量。
func (l *Ledger) mustTakeReserved(ccy string, amount float64) float64 {
	taken, ok := l.reserved.Withdraw(ccy, amount)
	if !ok {
		panic(fmt.Errorf("%w: settle %s %v exceeds reserved %v",
			ErrNegativeBalance, ccy, amount, l.reserved.Balance(ccy)))
	}
	return taken
}

func (l *Ledger) rebuild(ccy string) {
	l.total[ccy] = l.standard.Balance(ccy) + l.reserved.Balance(ccy)
}

// Balances 账本的只读快照。
type Balances struct {
	Standard map[string]float64 `json:"standard"`
	Reserved map[string]float64 `json:"reserved"`
	Total    map[string]float64 `json:"total"`
}

// Currencies 返回快照中出现的币种，按字母序。
func (b Balances) Currencies() []string {
	out := make([]string, 0, len(b.Total))
	for ccy := range b.Total {
		out = append(out, ccy)
	}
	sort.Strings(out)
	return out
}

// Snapshot 返回三个视图的拷贝。
func (l *Ledger) Snapshot() Balances {
	total := make(map[string]float64, len(l.total))
	for k, v := range l.total {
		total[k] = v
	}
	return Balances{
		Standard: l.standard.clone(),
		Reserved: l.reserved.clone(),
		Total:    total,
	}
}
