package monitor

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"market-replay-go/order"
	"market-replay-go/sim"
)

// Monitor Prometheus监控指标收集器，作为 sim.Recorder 消费每个 tick 的报告
type Monitor struct {
	registry *prometheus.Registry

	// 回放进度
	ticks     prometheus.Counter
	lastIndex prometheus.Gauge

	// 订单指标
	ordersPlaced   *prometheus.CounterVec
	ordersCanceled *prometheus.CounterVec
	ordersSkipped  prometheus.Counter
	openOrders     prometheus.Gauge

	// 成交指标
	tradesTotal  *prometheus.CounterVec
	tradedVolume *prometheus.CounterVec
	marketTrades prometheus.Counter

	// 账本指标
	balance        *prometheus.GaugeVec
	portfolioValue prometheus.Gauge
	missingPrices  prometheus.Gauge

	// 行情与预测
	referencePrice *prometheus.GaugeVec
	bestBid        *prometheus.GaugeVec
	bestAsk        *prometheus.GaugeVec
	spread         *prometheus.GaugeVec
	forecast       *prometheus.GaugeVec

	// 仓位
	positionNet   *prometheus.GaugeVec
	unrealizedPnL *prometheus.GaugeVec

	mu sync.RWMutex
}

// Config 监控配置
type Config struct {
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "mr",
		Subsystem: "replay",
	}
}

// New 创建新的Monitor实例，使用独立 registry，避免与全局默认注册冲突
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem, Name: name, Help: help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem, Name: name, Help: help,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem, Name: name, Help: help,
		}, labels)
	}
	gaugeVec := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem, Name: name, Help: help,
		}, labels)
	}

	return &Monitor{
		registry: reg,

		ticks:     counter("ticks_total", "已处理的 tick 数"),
		lastIndex: gauge("tick_index", "最近处理的 tick 序号"),

		ordersPlaced:   counterVec("orders_placed_total", "参与者下单总数", "product", "side"),
		ordersCanceled: counterVec("orders_canceled_total", "参与者撤单总数", "product", "side"),
		ordersSkipped:  counter("orders_skipped_total", "资金不足或风控拒绝而跳过的订单数"),
		openOrders:     gauge("open_orders", "结转到下一 tick 的参与者订单数"),

		tradesTotal:  counterVec("trades_total", "参与者成交笔数", "product"),
		tradedVolume: counterVec("traded_volume_total", "参与者累计成交量（base）", "product"),
		marketTrades: counter("market_trades_total", "全部成交笔数（含数据集之间）"),

		balance:        gaugeVec("balance", "各币种余额", "currency", "pool"),
		portfolioValue: gauge("portfolio_value", "组合估值（计价币）"),
		missingPrices:  gauge("portfolio_missing_prices", "缺少估值价格的币种数"),

		referencePrice: gaugeVec("reference_price", "参考价", "product"),
		bestBid:        gaugeVec("best_bid", "当前买一价", "product"),
		bestAsk:        gaugeVec("best_ask", "当前卖一价", "product"),
		spread:         gaugeVec("spread", "卖一减买一", "product"),
		forecast:       gaugeVec("forecast_price", "线性回归预测价", "product"),

		positionNet:   gaugeVec("position_net", "参与者净仓位（base）", "product"),
		unrealizedPnL: gaugeVec("unrealized_pnl", "按参考价计的未实现盈亏（quote）", "product"),
	}
}

// Record 实现 sim.Recorder，只读取报告，不修改任何状态
func (m *Monitor) Record(rep sim.TickReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ticks.Inc()
	m.lastIndex.Set(float64(rep.Index))

	for _, o := range rep.Placed {
		m.ordersPlaced.WithLabelValues(o.Product.String(), string(o.Side)).Inc()
	}
	for _, o := range rep.Cancelled {
		m.ordersCanceled.WithLabelValues(o.Product.String(), string(o.Side)).Inc()
	}
	m.ordersSkipped.Add(float64(rep.Skipped))
	m.openOrders.Set(float64(len(rep.Carried)))

	for _, t := range rep.Trades {
		m.tradesTotal.WithLabelValues(t.Product.String()).Inc()
		m.tradedVolume.WithLabelValues(t.Product.String()).Add(t.Quantity)
	}
	m.marketTrades.Add(float64(rep.MarketTrades))

	for ccy, v := range rep.Balances.Standard {
		m.balance.WithLabelValues(ccy, "standard").Set(v)
	}
	for ccy, v := range rep.Balances.Reserved {
		m.balance.WithLabelValues(ccy, "reserved").Set(v)
	}
	for ccy, v := range rep.Balances.Total {
		m.balance.WithLabelValues(ccy, "total").Set(v)
	}
	m.portfolioValue.Set(rep.Portfolio.Total)
	m.missingPrices.Set(float64(len(rep.Portfolio.Missing)))

	for p, q := range rep.Quotes {
		m.updateQuote(p, q.HasBid, q.BestBid, q.HasAsk, q.BestAsk)
		if ref, ok := q.Reference(); ok {
			m.referencePrice.WithLabelValues(p.String()).Set(ref)
		}
		if sp, ok := q.Spread(); ok {
			m.spread.WithLabelValues(p.String()).Set(sp)
		}
	}
	for p, fc := range rep.Forecasts {
		if fc.OK {
			m.forecast.WithLabelValues(p.String()).Set(fc.Value)
		}
	}
	for p, pos := range rep.Positions {
		m.positionNet.WithLabelValues(p.String()).Set(pos.Net)
		m.unrealizedPnL.WithLabelValues(p.String()).Set(pos.Unrealized)
	}
	return nil
}

func (m *Monitor) updateQuote(p order.Product, hasBid bool, bid float64, hasAsk bool, ask float64) {
	if hasBid {
		m.bestBid.WithLabelValues(p.String()).Set(bid)
	}
	if hasAsk {
		m.bestAsk.WithLabelValues(p.String()).Set(ask)
	}
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
