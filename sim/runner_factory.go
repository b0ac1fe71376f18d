package sim

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"market-replay-go/infrastructure/logger"
	"market-replay-go/inventory"
	"market-replay-go/market"
	"market-replay-go/order"
	"market-replay-go/posttrade"
	"market-replay-go/risk"
	"market-replay-go/strategy"
)

// RunnerConfig 描述 Runner 的可选参数。
type RunnerConfig struct {
	RunID        string             // 为空时自动生成
	Participant  string             // 参与者名称，不能与数据集提交者相同
	InitialFunds map[string]float64 // 初始可用余额
	Valuation    string             // 组合估值计价币

	PolicyType string
	Policy     strategy.PolicyConfig
	Forecast   strategy.ForecastConfig
	Wrap       bool

	Limits      risk.Limits
	Constraints order.Constraints
	Lookahead   int // 成交后评估的 tick 数，0 表示不做成交后分析
}

// DefaultRunnerConfig 返回默认配置，初始资金需调用方填写。
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Participant: "simuser",
		Valuation:   "USDT",
		PolicyType:  string(strategy.TrendPolicyType),
		Policy:      strategy.DefaultPolicyConfig(),
		Forecast:    strategy.DefaultForecastConfig(),
		Lookahead:   1,
	}
}

// BuildRunner 基于配置与数据集组装 Runner（全部为内存组件）。
func BuildRunner(cfg RunnerConfig, ds *market.Dataset, lg *logger.Logger) (*Runner, error) {
	if ds == nil {
		return nil, errors.New("dataset is nil")
	}
	if cfg.Participant == "" {
		return nil, errors.New("participant is required")
	}
	if cfg.Participant == order.DatasetOwner {
		return nil, fmt.Errorf("participant name %q is reserved for dataset rows", order.DatasetOwner)
	}
	if lg == nil {
		lg = logger.NewNop()
	}
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	ledger := inventory.NewLedgerWithFunds(cfg.InitialFunds)
	policy, err := strategy.NewPolicyFactory().CreatePolicy(cfg.PolicyType, cfg.Policy, cfg.InitialFunds)
	if err != nil {
		return nil, err
	}
	fc, err := strategy.NewForecaster(cfg.Forecast, lg.Logger)
	if err != nil {
		return nil, err
	}
	positions := inventory.NewPositions()

	mgr := order.NewManager(cfg.Participant, ledger)
	mgr.SetConstraints(cfg.Constraints)

	var guard risk.Guard
	if cfg.Limits.Enabled() {
		guard = risk.NewLimitChecker(cfg.Limits, positions)
	}
	var analyzer *posttrade.Analyzer
	if cfg.Lookahead > 0 {
		analyzer = posttrade.NewAnalyzer(cfg.Lookahead)
	}

	return &Runner{
		RunID:       runID,
		Participant: cfg.Participant,
		Valuation:   cfg.Valuation,
		Dataset:     ds,
		Clock:       ds.Clock(cfg.Wrap),
		Ledger:      ledger,
		Orders:      mgr,
		Positions:   positions,
		Quotes:      market.NewQuoteBoard(),
		Forecaster:  fc,
		Policy:      policy,
		Risk:        guard,
		Analyzer:    analyzer,
		Log:         lg.WithFields(map[string]interface{}{"runId": runID}),
	}, nil
}
