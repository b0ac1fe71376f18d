package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFunds struct {
	afford   bool
	reserved []Order
	released []Order
}

func (m *mockFunds) CanAfford(o Order) bool { return m.afford }

func (m *mockFunds) ReserveOrder(o Order) bool {
	m.reserved = append(m.reserved, o)
	return true
}

func (m *mockFunds) ReleaseOrder(o Order) { m.released = append(m.released, o) }

func bidOrder(qty float64) Order {
	return Order{Product: MustProduct("ETH/BTC"), Side: SideBid, Price: 0.05, Quantity: qty, Timestamp: "t1"}
}

func TestManagerPlaceAndCancel(t *testing.T) {
	funds := &mockFunds{afford: true}
	m := NewManager("bot", funds)

	placed, ok, err := m.Place(bidOrder(2))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), placed.ID)
	assert.Equal(t, StatusLive, placed.Status)
	assert.Equal(t, "bot", placed.Owner)
	require.Len(t, funds.reserved, 1)

	// live 订单不可撤销
	_, err = m.Cancel(placed.ID)
	assert.True(t, errors.Is(err, ErrIllegalTransition))

	carried, err := m.Sync(placed.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, StatusCarryover, carried.Status)
	assert.Len(t, m.Carried(), 1)

	cancelled, err := m.Cancel(placed.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, cancelled.Status)
	require.Len(t, funds.released, 1)
	assert.Equal(t, 2.0, funds.released[0].Quantity)
	assert.Empty(t, m.Open())

	got, ok := m.Get(placed.ID)
	assert.True(t, ok)
	assert.Equal(t, StatusCanceled, got.Status)

	_, err = m.Cancel(99)
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestManagerInsufficientFundsSkips(t *testing.T) {
	funds := &mockFunds{afford: false}
	m := NewManager("bot", funds)
	_, ok, err := m.Place(bidOrder(1))
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, funds.reserved)
	assert.Empty(t, m.Open())
}

func TestManagerZeroQtySkips(t *testing.T) {
	m := NewManager("bot", &mockFunds{afford: true})
	_, ok, err := m.Place(bidOrder(0))
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestManagerRejectsInvalid(t *testing.T) {
	m := NewManager("bot", &mockFunds{afford: true})
	o := bidOrder(1)
	o.Price = -1
	_, ok, err := m.Place(o)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestManagerSyncPartialThenFilled(t *testing.T) {
	m := NewManager("bot", &mockFunds{afford: true})
	placed, _, _ := m.Place(bidOrder(3))

	o, err := m.Sync(placed.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusCarryover, o.Status)
	assert.Equal(t, 1.0, o.Quantity)

	o, err = m.Sync(placed.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, o.Status)
	assert.Empty(t, m.Open())
	assert.Equal(t, 1, m.Closed().Len())
}

func TestManagerIDsAreMonotonic(t *testing.T) {
	m := NewManager("bot", nil)
	a, _, _ := m.Place(bidOrder(1))
	b, _, _ := m.Place(bidOrder(1))
	assert.Less(t, a.ID, b.ID)
	open := m.Open()
	require.Len(t, open, 2)
	assert.Equal(t, a.ID, open[0].ID)
}
