package market

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-replay-go/order"
)

const sampleCSV = `2020/03/17 17:01:24.884492,ETH/BTC,bid,0.02187308,7.44564869
2020/03/17 17:01:24.884492,ETH/BTC,ask,0.02189093,0.1
2020/03/17 17:01:24.884492,DOGE/BTC,ask,0.00000031,1000
2020/03/17 17:01:30.099017,ETH/BTC,bid,not-a-price,1
2020/03/17 17:01:30.099017,ETH/BTC,buy,0.02,1
2020/03/17 17:01:30.099017,ETH/BTC,ask,0.02,-1
too,few,fields
2020/03/17 17:01:30.099017,ETH/BTC,ask,0.0219,3
`

func TestReadCSV(t *testing.T) {
	ds, st, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 8, st.Rows)
	assert.Equal(t, 4, st.Accepted)
	assert.Equal(t, 4, st.Malformed)
	for _, e := range st.FirstErrors {
		assert.True(t, errors.Is(e, ErrMalformedRow), e.Error())
	}

	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, []order.Product{order.MustProduct("DOGE/BTC"), order.MustProduct("ETH/BTC")}, ds.Products())
	assert.Equal(t, []string{"2020/03/17 17:01:24.884492", "2020/03/17 17:01:30.099017"}, ds.Timestamps())

	first := ds.OrdersAt("2020/03/17 17:01:24.884492")
	require.Len(t, first, 3)
	assert.Equal(t, order.SideBid, first[0].Side)
	assert.Equal(t, order.DatasetOwner, first[0].Owner)
	assert.Equal(t, order.StatusLive, first[0].Status)
	assert.InDelta(t, 0.00000031, first[2].Price, 1e-15)
}

func TestDatasetOrdersAtReturnsCopies(t *testing.T) {
	ds, _, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	ts := ds.Timestamps()[0]
	got := ds.OrdersAt(ts)
	got[0].Quantity = 0
	assert.NotZero(t, ds.OrdersAt(ts)[0].Quantity)
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, _, err := LoadCSV("does/not/exist.csv")
	assert.Error(t, err)
}
