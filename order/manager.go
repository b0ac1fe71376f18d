package order

import (
	"errors"
	"fmt"
	"sort"
)

// Funds 是下单前的资金检查与冻结抽象，由 inventory.Ledger 实现。
type Funds interface {
	CanAfford(o Order) bool
	ReserveOrder(o Order) bool
	ReleaseOrder(o Order)
}

// Manager 维护模拟参与者的订单生命周期：new -> live -> carryover/partial -> filled/cancelled。
// 非并发安全，由 sim driver 单线程驱动。
type Manager struct {
	owner       string
	funds       Funds
	sm          *StateMachine
	constraints Constraints
	nextID      uint64
	open        map[uint64]*Order
	closed      *Book
}

func NewManager(owner string, funds Funds) *Manager {
	return &Manager{
		owner:  owner,
		funds:  funds,
		sm:     NewStateMachine(),
		open:   make(map[uint64]*Order),
		closed: NewBook(),
	}
}

var ErrUnknownOrder = errors.New("unknown order")

// SetConstraints 设置参与者下单的最小数量/名义限制。
func (m *Manager) SetConstraints(c Constraints) {
	m.constraints = c
}

// Owner 返回参与者名称。
func (m *Manager) Owner() string { return m.owner }

// Place 校验订单、检查资金并原子冻结。资金不足或数量为 0 返回 ok=false 且不报错；
// 字段不合法返回错误。成功后订单处于 live 状态。
func (m *Manager) Place(o Order) (placed Order, ok bool, err error) {
	o.Owner = m.owner
	if err := m.constraints.Validate(o); err != nil {
		return Order{}, false, err
	}
	if o.Quantity <= 0 {
		return Order{}, false, nil
	}
	o.Status = StatusNew
	if m.funds != nil {
		if !m.funds.CanAfford(o) || !m.funds.ReserveOrder(o) {
			return Order{}, false, nil
		}
	}
	m.nextID++
	o.ID = m.nextID
	m.transition(&o, StatusLive)
	cp := o
	m.open[o.ID] = &cp
	return o, true, nil
}

// Cancel 撤销结转订单并释放其剩余冻结资金。
func (m *Manager) Cancel(id uint64) (Order, error) {
	o, ok := m.open[id]
	if !ok {
		return Order{}, ErrUnknownOrder
	}
	if !m.sm.CanCancel(o.Status) {
		return Order{}, fmt.Errorf("%w: cannot cancel order %d in status %s", ErrIllegalTransition, id, o.Status)
	}
	m.transition(o, StatusCanceled)
	if m.funds != nil {
		m.funds.ReleaseOrder(*o)
	}
	delete(m.open, id)
	m.closed.Set(*o)
	return *o, nil
}

// Sync 根据撮合后的剩余数量推进订单状态：剩余为 0 记为完全成交，
// 否则结转到下一 tick（期间有成交的先记为部分成交）。
func (m *Manager) Sync(id uint64, remaining float64) (Order, error) {
	o, ok := m.open[id]
	if !ok {
		return Order{}, ErrUnknownOrder
	}
	if remaining < o.Quantity {
		if remaining <= 0 {
			o.Quantity = 0
			m.transition(o, StatusFilled)
			delete(m.open, id)
			m.closed.Set(*o)
			return *o, nil
		}
		o.Quantity = remaining
		m.transition(o, StatusPartial)
	}
	m.transition(o, StatusCarryover)
	return *o, nil
}

// Get 返回订单（包含已终结订单）。
func (m *Manager) Get(id uint64) (Order, bool) {
	if o, ok := m.open[id]; ok {
		return *o, true
	}
	return m.closed.Get(id)
}

// Open 返回未终结订单的拷贝，按 ID 升序（即提交顺序）。
func (m *Manager) Open() []Order {
	res := make([]Order, 0, len(m.open))
	for _, o := range m.open {
		res = append(res, *o)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Carried 返回上一 tick 结转、可被撤销的订单。
func (m *Manager) Carried() []Order {
	var res []Order
	for _, o := range m.Open() {
		if m.sm.CanCancel(o.Status) {
			res = append(res, o)
		}
	}
	return res
}

// Closed 返回已终结订单簿。
func (m *Manager) Closed() *Book { return m.closed }

// transition 非法转换属于不变量破坏，直接 panic。
func (m *Manager) transition(o *Order, to Status) {
	if err := m.sm.ValidateTransition(o.Status, to); err != nil {
		panic(fmt.Errorf("order %d: %w", o.ID, err))
	}
	o.Status = to
}
