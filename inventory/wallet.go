package inventory

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidAmount 负数金额属于调用方编程错误。
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeBalance 余额将变为负数，不变量被破坏。
	ErrNegativeBalance = errors.New("negative balance")
)

// DebitTolerance 扣减时允许的相对误差：余额 >= amount*DebitTolerance 即视为足够，
// 用于吸收下单时 price*qty 与结算时重新计算之间的浮点漂移。
const DebitTolerance = 0.9999

// Wallet 单一资金池，按币种记余额。
type Wallet struct {
	balances map[string]float64
}

func NewWallet() *Wallet {
	return &Wallet{balances: make(map[string]float64)}
}

// Balance 返回币种余额，不存在时为 0。
func (w *Wallet) Balance(ccy string) float64 { return w.balances[ccy] }

// Credit 增加余额，负数金额直接 panic。
func (w *Wallet) Credit(ccy string, amount float64) {
	mustNonNegative(ccy, amount)
	w.balances[ccy] += amount
}

// Contains 判断余额是否足以支付 amount（含容差）。
func (w *Wallet) Contains(ccy string, amount float64) bool {
	if amount == 0 {
		return true
	}
	bal, ok := w.balances[ccy]
	if !ok {
		return false
	}
	return bal >= DebitTolerance*amount
}

// Covers 判断余额是否足额覆盖 amount，不含容差。
func (w *Wallet) Covers(ccy string, amount float64) bool {
	return amount == 0 || w.balances[ccy] >= amount
}

// Debit 扣减余额，不足时返回 false 且不修改。容差范围内的不足额被截断为 0，余额永不为负。
func (w *Wallet) Debit(ccy string, amount float64) bool {
	_, ok := w.Withdraw(ccy, amount)
	return ok
}

// Withdraw 按 Debit 的规则扣减，并返回实际扣掉的数量（容差截断时小于 amount）。
func (w *Wallet) Withdraw(ccy string, amount float64) (float64, bool) {
	mustNonNegative(ccy, amount)
	if !w.Contains(ccy, amount) {
		return 0, false
	}
	if amount == 0 {
		return 0, true
	}
	bal := w.balances[ccy]
	if amount > bal {
		amount = bal
	}
	w.balances[ccy] = bal - amount
	return amount, true
}

// Take 足额扣减，不使用容差；不足时返回 false 且不修改。
func (w *Wallet) Take(ccy string, amount float64) bool {
	mustNonNegative(ccy, amount)
	if !w.Covers(ccy, amount) {
		return false
	}
	if amount > 0 {
		w.balances[ccy] -= amount
	}
	return true
}

// Currencies 返回已出现过的币种，按字母序。
func (w *Wallet) Currencies() []string {
	out := make([]string, 0, len(w.balances))
	for ccy := range w.balances {
		out = append(out, ccy)
	}
	sort.Strings(out)
	return out
}

func (w *Wallet) clone() map[string]float64 {
	out := make(map[string]float64, len(w.balances))
	for k, v := range w.balances {
		out[k] = v
	}
	return out
}

func mustNonNegative(ccy string, amount float64) {
	if amount < 0 || amount != amount {
		panic(fmt.Errorf("%w: %s %v", ErrInvalidAmount, ccy, amount))
	}
}
