package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-replay-go/market"
	"market-replay-go/order"
)

func newPolicy(t *testing.T) *TrendPolicy {
	t.Helper()
	p, err := NewTrendPolicy(DefaultPolicyConfig(), map[string]float64{"ETH": 10, "BTC": 2})
	require.NoError(t, err)
	return p
}

func view(q market.Quote, fc Forecast) View {
	q.Product, fc.Product = ethbtc, ethbtc
	return View{
		Timestamp: "t2",
		Products:  []order.Product{ethbtc},
		Quotes:    map[order.Product]market.Quote{ethbtc: q},
		Forecasts: map[order.Product]Forecast{ethbtc: fc},
	}
}

func TestStandardAmount(t *testing.T) {
	p := newPolicy(t)
	assert.InDelta(t, 1.0, p.StandardAmount("ETH"), 1e-12)
	assert.InDelta(t, 0.2, p.StandardAmount("BTC"), 1e-12)
	assert.Zero(t, p.StandardAmount("DOGE"))
}

func TestProposalsBidOnUptrend(t *testing.T) {
	p := newPolicy(t)
	q := market.Quote{BestBid: 0.020, BestAsk: 0.022, HasBid: true, HasAsk: true}
	got := p.Proposals(view(q, Forecast{Value: 0.025, OK: true}))
	require.Len(t, got, 1)
	assert.Equal(t, order.SideBid, got[0].Side)
	assert.Equal(t, 0.022, got[0].Price)
	assert.InDelta(t, 1.0, got[0].Quantity, 1e-12)
	assert.Equal(t, "t2", got[0].Timestamp)
}

func TestProposalsAskOnDowntrend(t *testing.T) {
	p := newPolicy(t)
	q := market.Quote{BestBid: 0.020, BestAsk: 0.022, HasBid: true, HasAsk: true}
	got := p.Proposals(view(q, Forecast{Value: 0.018, OK: true}))
	require.Len(t, got, 1)
	assert.Equal(t, order.SideAsk, got[0].Side)
	assert.InDelta(t, 0.021, got[0].Price, 1e-12)
}

func TestProposalsWithinThresholdPlacesNothing(t *testing.T) {
	p := newPolicy(t)
	q := market.Quote{BestBid: 0.020, BestAsk: 0.022, HasBid: true, HasAsk: true}
	// 预测略低于参考价但未超过 0.5% 阈值
	assert.Empty(t, p.Proposals(view(q, Forecast{Value: 0.0209, OK: true})))
	// 预测高于参考价但不高于最优卖价
	assert.Empty(t, p.Proposals(view(q, Forecast{Value: 0.0215, OK: true})))
}

func TestProposalsSkipDegenerate(t *testing.T) {
	p := newPolicy(t)
	q := market.Quote{BestBid: 0.020, BestAsk: 0.022, HasBid: true, HasAsk: true}
	assert.Empty(t, p.Proposals(view(q, Forecast{Value: 1, OK: false})))
	assert.Empty(t, p.Proposals(view(market.Quote{}, Forecast{Value: 1, OK: true})))
}

func TestProposalsAsksBeforeBids(t *testing.T) {
	p := newPolicy(t)
	doge := order.MustProduct("DOGE/BTC")
	v := view(market.Quote{BestBid: 0.020, BestAsk: 0.022, HasBid: true, HasAsk: true}, Forecast{Value: 0.025, OK: true})
	v.Products = []order.Product{doge, ethbtc}
	v.Quotes[doge] = market.Quote{Product: doge, BestBid: 3e-7, BestAsk: 3.2e-7, HasBid: true, HasAsk: true}
	v.Forecasts[doge] = Forecast{Product: doge, Value: 2e-7, OK: true}

	got := p.Proposals(v)
	require.Len(t, got, 2)
	assert.Equal(t, order.SideAsk, got[0].Side)
	assert.Equal(t, doge, got[0].Product)
	assert.Equal(t, order.SideBid, got[1].Side)
}

func TestCancellations(t *testing.T) {
	p := newPolicy(t)
	q := market.Quote{BestBid: 0.020, BestAsk: 0.022, HasBid: true, HasAsk: true}
	carried := []order.Order{
		{ID: 1, Product: ethbtc, Side: order.SideAsk, Price: 0.019}, // 低于最优买价
		{ID: 2, Product: ethbtc, Side: order.SideAsk, Price: 0.030},
		{ID: 3, Product: ethbtc, Side: order.SideBid, Price: 0.023}, // 高于最优卖价
		{ID: 4, Product: ethbtc, Side: order.SideBid, Price: 0.021},
	}
	got := p.Cancellations(view(q, Forecast{Value: 0.0215, OK: true}), carried)
	assert.Equal(t, []uint64{1, 3}, got)

	// 预测上涨到 0.031，卖单 2 价格低于预测也应撤销
	got = p.Cancellations(view(q, Forecast{Value: 0.031, OK: true}), carried)
	assert.Equal(t, []uint64{1, 2, 3}, got)

	assert.Empty(t, p.Cancellations(view(q, Forecast{OK: false}), carried))
}

func TestNewTrendPolicyValidates(t *testing.T) {
	_, err := NewTrendPolicy(PolicyConfig{OrderFraction: 0, AskThreshold: 1}, nil)
	assert.Error(t, err)
	_, err = NewTrendPolicy(PolicyConfig{OrderFraction: 0.1, AskThreshold: 0}, nil)
	assert.Error(t, err)
}
