package matching

import (
	"fmt"
	"testing"

	"market-replay-go/order"
)

func fillArena(a *Arena, p order.Product, n int) {
	for i := 0; i < n; i++ {
		a.Add(order.Order{Product: p, Side: order.SideAsk, Price: 100 + float64(i%50)*0.01, Quantity: 1, Owner: order.DatasetOwner})
		a.Add(order.Order{Product: p, Side: order.SideBid, Price: 100.25 - float64(i%50)*0.01, Quantity: 1.5, Owner: order.DatasetOwner})
	}
}

// BenchmarkMatch 单交易对、不同规模的一次撮合
func BenchmarkMatch(b *testing.B) {
	p := order.MustProduct("ETH/BTC")
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("orders_%d", n*2), func(b *testing.B) {
			a := NewArena(n * 2)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				a.Reset()
				fillArena(a, p, n)
				b.StartTimer()
				Match(a, p, "t", "simuser")
			}
		})
	}
}

// BenchmarkMatchAll 多交易对按名称排序后依次撮合
func BenchmarkMatchAll(b *testing.B) {
	products := []order.Product{
		order.MustProduct("ETH/BTC"), order.MustProduct("DOGE/BTC"),
		order.MustProduct("BTC/USDT"), order.MustProduct("ETH/USDT"),
	}
	a := NewArena(0)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		a.Reset()
		for _, p := range products {
			fillArena(a, p, 100)
		}
		b.StartTimer()
		MatchAll(a, nil, "t", "simuser")
	}
}
