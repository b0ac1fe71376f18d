package monitor

import (
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"market-replay-go/inventory"
	"market-replay-go/market"
	"market-replay-go/order"
	"market-replay-go/sim"
	"market-replay-go/strategy"
)

func sampleReport() sim.TickReport {
	p := order.MustProduct("ETH/BTC")
	return sim.TickReport{
		Index:     3,
		Timestamp: "t4",
		Quotes: map[order.Product]market.Quote{
			p: {Product: p, BestBid: 0.01, BestAsk: 0.012, HasBid: true, HasAsk: true},
		},
		Forecasts: map[order.Product]strategy.Forecast{
			p: {Product: p, Value: 0.015, OK: true, Points: 4},
		},
		Placed: []order.Order{
			{ID: 1, Product: p, Side: order.SideBid, Price: 0.012, Quantity: 1},
			{ID: 2, Product: p, Side: order.SideAsk, Price: 0.011, Quantity: 1},
		},
		Cancelled:    []order.Order{{ID: 0, Product: p, Side: order.SideAsk}},
		Skipped:      2,
		Trades:       []order.Trade{{Product: p, Price: 0.012, Quantity: 0.5}},
		MarketTrades: 4,
		Carried:      []order.Order{{ID: 2}},
		Balances: inventory.Balances{
			Standard: map[string]float64{"BTC": 0.9},
			Reserved: map[string]float64{"BTC": 0.1},
			Total:    map[string]float64{"BTC": 1},
		},
		Portfolio: inventory.PortfolioValue{Total: 25000},
		Positions: map[order.Product]inventory.PositionView{
			p: {Net: 0.5, AvgCost: 0.012, Volume: 0.5, Mark: 0.011, Unrealized: -0.0005},
		},
	}
}

func TestRecordUpdatesMetrics(t *testing.T) {
	m := New(DefaultConfig())
	if err := m.Record(sampleReport()); err != nil {
		t.Fatalf("record: %v", err)
	}

	if v := testutil.ToFloat64(m.ticks); v != 1 {
		t.Fatalf("ticks = %v", v)
	}
	if v := testutil.ToFloat64(m.ordersPlaced.WithLabelValues("ETH/BTC", "bid")); v != 1 {
		t.Fatalf("placed bid = %v", v)
	}
	if v := testutil.ToFloat64(m.ordersSkipped); v != 2 {
		t.Fatalf("skipped = %v", v)
	}
	if v := testutil.ToFloat64(m.tradedVolume.WithLabelValues("ETH/BTC")); v != 0.5 {
		t.Fatalf("traded volume = %v", v)
	}
	if v := testutil.ToFloat64(m.marketTrades); v != 4 {
		t.Fatalf("market trades = %v", v)
	}
	if v := testutil.ToFloat64(m.balance.WithLabelValues("BTC", "reserved")); v != 0.1 {
		t.Fatalf("reserved balance = %v", v)
	}
	if v := testutil.ToFloat64(m.referencePrice.WithLabelValues("ETH/BTC")); math.Abs(v-0.011) > 1e-12 {
		t.Fatalf("reference = %v", v)
	}
	if v := testutil.ToFloat64(m.forecast.WithLabelValues("ETH/BTC")); v != 0.015 {
		t.Fatalf("forecast = %v", v)
	}
	if v := testutil.ToFloat64(m.openOrders); v != 1 {
		t.Fatalf("open orders = %v", v)
	}
	if v := testutil.ToFloat64(m.spread.WithLabelValues("ETH/BTC")); math.Abs(v-0.002) > 1e-12 {
		t.Fatalf("spread = %v", v)
	}
	if v := testutil.ToFloat64(m.positionNet.WithLabelValues("ETH/BTC")); v != 0.5 {
		t.Fatalf("position = %v", v)
	}
	if v := testutil.ToFloat64(m.unrealizedPnL.WithLabelValues("ETH/BTC")); v != -0.0005 {
		t.Fatalf("unrealized = %v", v)
	}
	if v := testutil.ToFloat64(m.portfolioValue); v != 25000 {
		t.Fatalf("portfolio = %v", v)
	}

	// 计数器累加，仪表覆盖
	_ = m.Record(sampleReport())
	if v := testutil.ToFloat64(m.ticks); v != 2 {
		t.Fatalf("ticks after second record = %v", v)
	}
	if v := testutil.ToFloat64(m.openOrders); v != 1 {
		t.Fatalf("open orders after second record = %v", v)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New(DefaultConfig())
	_ = m.Record(sampleReport())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mr_replay_ticks_total 1") {
		t.Fatalf("ticks metric missing from output")
	}
}
