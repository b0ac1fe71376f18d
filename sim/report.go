package sim

import (
	"market-replay-go/inventory"
	"market-replay-go/market"
	"market-replay-go/order"
	"market-replay-go/posttrade"
	"market-replay-go/strategy"
)

// TickReport 单个 tick 处理完成后的只读视图，供日志、指标、推送与持久化使用。
type TickReport struct {
	RunID        string                                   `json:"runId"`
	Index        int                                      `json:"index"`
	Timestamp    string                                   `json:"timestamp"`
	First        bool                                     `json:"first,omitempty"`
	Final        bool                                     `json:"final,omitempty"`
	Quotes       map[order.Product]market.Quote           `json:"quotes"`
	Forecasts    map[order.Product]strategy.Forecast      `json:"forecasts,omitempty"`
	Placed       []order.Order                            `json:"placed,omitempty"`
	Cancelled    []order.Order                            `json:"cancelled,omitempty"`
	Skipped      int                                      `json:"skipped"`
	Trades       []order.Trade                            `json:"trades,omitempty"` // 参与者成交
	MarketTrades int                                      `json:"marketTrades"`     // 全部成交笔数
	TradedQty    map[order.Product]float64                `json:"tradedQty,omitempty"`
	Carried      []order.Order                            `json:"carried,omitempty"`
	Balances     inventory.Balances                       `json:"balances"`
	Portfolio    inventory.PortfolioValue                 `json:"portfolio"`
	Positions    map[order.Product]inventory.PositionView `json:"positions,omitempty"`
}

// Summary 整个回放的汇总。
type Summary struct {
	RunID          string                                   `json:"runId"`
	Participant    string                                   `json:"participant"`
	Ticks          int                                      `json:"ticks"`
	FirstTick      string                                   `json:"firstTick"`
	LastTick       string                                   `json:"lastTick"`
	Placed         int                                      `json:"placed"`
	Cancelled      int                                      `json:"cancelled"`
	Skipped        int                                      `json:"skipped"`
	Trades         int                                      `json:"trades"`
	MarketTrades   int                                      `json:"marketTrades"`
	OpenOrders     int                                      `json:"openOrders"`
	InitialBalance inventory.Balances                       `json:"initialBalance"`
	FinalBalance   inventory.Balances                       `json:"finalBalance"`
	InitialValue   inventory.PortfolioValue                 `json:"initialValue"`
	FinalValue     inventory.PortfolioValue                 `json:"finalValue"`
	Positions      map[order.Product]inventory.PositionView `json:"positions,omitempty"`
	PostTrade      posttrade.Stats                          `json:"postTrade"`
	Fills          []posttrade.FillRecord                   `json:"fills,omitempty"`
	SalesImpact    map[string]float64                       `json:"salesImpact"`
}

// Recorder 消费每个 tick 的报告。实现方只读，不得修改账本或订单。
type Recorder interface {
	Record(rep TickReport) error
}

// Finisher 可选接口：回放结束时接收汇总。
type Finisher interface {
	Finish(sum Summary) error
}

// RecorderFunc 适配普通函数。
type RecorderFunc func(rep TickReport) error

func (f RecorderFunc) Record(rep TickReport) error { return f(rep) }
