package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusConstants(t *testing.T) {
	if StatusNew == "" || StatusFilled == "" {
		t.Fatalf("status constants not set")
	}
}

func TestParseProduct(t *testing.T) {
	p, err := ParseProduct("ETH/BTC")
	require.NoError(t, err)
	assert.Equal(t, "ETH", p.Base)
	assert.Equal(t, "BTC", p.Quote)
	assert.Equal(t, "ETH/BTC", p.String())

	for _, bad := range []string{"", "ETHBTC", "ETH/", "/BTC", "A/B/C"} {
		_, err := ParseProduct(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide(" Bid ")
	require.NoError(t, err)
	assert.Equal(t, SideBid, s)
	s, err = ParseSide("ASK")
	require.NoError(t, err)
	assert.Equal(t, SideAsk, s)
	_, err = ParseSide("buy")
	assert.Error(t, err)
}

func TestOrderReserved(t *testing.T) {
	bid := Order{Product: MustProduct("ETH/BTC"), Side: SideBid, Price: 0.02, Quantity: 3}
	ccy, amt := bid.Reserved()
	assert.Equal(t, "BTC", ccy)
	assert.InDelta(t, 0.06, amt, 1e-12)

	ask := Order{Product: MustProduct("ETH/BTC"), Side: SideAsk, Price: 0.02, Quantity: 3}
	ccy, amt = ask.Reserved()
	assert.Equal(t, "ETH", ccy)
	assert.Equal(t, 3.0, amt)
}

func TestTradeSides(t *testing.T) {
	tr := Trade{Price: 10, PriceDelta: 2, Quantity: 1.5, AskOwner: "bot", BidOwner: DatasetOwner}
	assert.Equal(t, 12.0, tr.BidPrice())
	assert.Equal(t, 15.0, tr.Notional())
	assert.Equal(t, []Side{SideAsk}, tr.SidesOf("bot"))
	assert.True(t, tr.Involves(DatasetOwner))
	assert.False(t, tr.Involves("other"))

	self := Trade{AskOwner: "bot", BidOwner: "bot"}
	assert.Equal(t, []Side{SideBid, SideAsk}, self.SidesOf("bot"))
}
