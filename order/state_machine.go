package order

import (
	"errors"
	"fmt"
	"sort"
)

// ErrIllegalTransition 非法状态转换，调用方应视为不变量被破坏。
var ErrIllegalTransition = errors.New("illegal state transition")

// StateTransition 状态转换
type StateTransition struct {
	From Status
	To   Status
}

// StateMachine 订单状态机
type StateMachine struct {
	transitions map[StateTransition]bool
}

// NewStateMachine 创建新的状态机
func NewStateMachine() *StateMachine {
	sm := &StateMachine{
		transitions: make(map[StateTransition]bool),
	}
	sm.initializeTransitions()
	return sm
}

// initializeTransitions 初始化所有合法的状态转换
func (sm *StateMachine) initializeTransitions() {
	legalTransitions := []StateTransition{
		// 新单冻结资金后进入 live
		{StatusNew, StatusLive},

		{StatusLive, StatusPartial},
		{StatusLive, StatusFilled},
		{StatusLive, StatusCarryover},
		{StatusLive, StatusCanceled},

		// 结转到下一 tick 的订单
		{StatusCarryover, StatusPartial},
		{StatusCarryover, StatusFilled},
		{StatusCarryover, StatusCanceled},

		// 部分成交后可继续成交或结转
		{StatusPartial, StatusFilled},
		{StatusPartial, StatusCarryover},
		{StatusPartial, StatusCanceled},

		// 终态不能转换（FILLED, CANCELED）
	}

	for _, t := range legalTransitions {
		sm.transitions[t] = true
	}
}

// ValidateTransition 验证状态转换是否合法
func (sm *StateMachine) ValidateTransition(from, to Status) error {
	// 相同状态允许（幂等性），终态除外
	if from == to && !sm.IsFinalState(from) {
		return nil
	}
	if !sm.transitions[StateTransition{From: from, To: to}] {
		return fmt.Errorf("%w: %s -> %s (allowed from %s: %v)", ErrIllegalTransition, from, to, from, sm.AllowedTransitions(from))
	}
	return nil
}

// AllowedTransitions 返回当前状态所有合法的目标状态，按名称排序
func (sm *StateMachine) AllowedTransitions(current Status) []Status {
	allowed := make([]Status, 0)
	for transition := range sm.transitions {
		if transition.From == current {
			allowed = append(allowed, transition.To)
		}
	}
	sort.Slice(allowed, func(i, j int) bool { return allowed[i] < allowed[j] })
	return allowed
}

// IsFinalState 判断是否是终态
func (sm *StateMachine) IsFinalState(status Status) bool {
	switch status {
	case StatusFilled, StatusCanceled:
		return true
	default:
		return false
	}
}

// CanCancel 只有结转过来的订单才会被策略撤销
func (sm *StateMachine) CanCancel(status Status) bool {
	return status == StatusCarryover
}
