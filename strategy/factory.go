package strategy

import (
	"errors"

	"market-replay-go/order"
)

// PolicyType 策略类型。
type PolicyType string

const (
	// TrendPolicyType 基于线性回归预测的趋势跟随策略
	TrendPolicyType PolicyType = "trend"
	// PassivePolicyType 不下单也不撤单，只回放数据集
	PassivePolicyType PolicyType = "passive"
)

// PolicyFactory creates policy instances based on configuration.
type PolicyFactory struct{}

// NewPolicyFactory creates a new PolicyFactory.
func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// CreatePolicy 按类型创建策略，空类型视为 trend。
func (f *PolicyFactory) CreatePolicy(policyType string, cfg PolicyConfig, initialStandard map[string]float64) (Policy, error) {
	switch PolicyType(policyType) {
	case TrendPolicyType, "":
		return NewTrendPolicy(cfg, initialStandard)
	case PassivePolicyType:
		return PassivePolicy{}, nil
	default:
		return nil, errors.New("unknown policy type: " + policyType)
	}
}

// PassivePolicy 从不下单。
type PassivePolicy struct{}

func (PassivePolicy) Cancellations(View, []order.Order) []uint64 { return nil }
func (PassivePolicy) Proposals(View) []order.Order               { return nil }
