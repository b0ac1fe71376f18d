package sim

import (
	"context"
	"errors"
	"sort"

	"market-replay-go/infrastructure/logger"
	"market-replay-go/inventory"
	"market-replay-go/market"
	"market-replay-go/matching"
	"market-replay-go/order"
	"market-replay-go/posttrade"
	"market-replay-go/risk"
	"market-replay-go/strategy"
)

// ErrEmptyDataset 数据集中没有任何时间戳。
var ErrEmptyDataset = errors.New("dataset has no timestamps")

// Runner 按时钟逐 tick 回放数据集，驱动 统计 -> 预测 -> 撤单 -> 下单 -> 撮合 -> 结算 -> 结转。
// 单线程执行，账本与订单状态只由 Runner 修改。
type Runner struct {
	RunID       string
	Participant string
	Valuation   string // 组合估值的计价币，如 USDT

	Dataset    *market.Dataset
	Clock      *market.Clock
	Ledger     *inventory.Ledger
	Orders     *order.Manager
	Positions  *inventory.Positions
	Quotes     *market.QuoteBoard
	Forecaster *strategy.Forecaster
	Policy     strategy.Policy
	Risk       risk.Guard          // 可选
	Analyzer   *posttrade.Analyzer // 可选
	Log        *logger.Logger
	Recorders  []Recorder

	products []order.Product
	arena    *matching.Arena
	tick     int
	sum      Summary
	started  bool
}

// TickContext 单个 tick 的中间状态，依次经过各步骤填充。
type TickContext struct {
	Index     int
	Timestamp string
	First     bool
	Final     bool

	Arena  *matching.Arena
	slotOf map[uint64]int // 参与者订单 ID -> arena 槽位

	Quotes    map[order.Product]market.Quote
	Forecasts map[order.Product]strategy.Forecast
	Cancelled []order.Order
	Placed    []order.Order
	Skipped   int
	Results   map[order.Product]matching.Result
	Trades    []order.Trade // 参与者成交
	Market    int
	Carried   []order.Order
}

func (r *Runner) init() {
	if r.started {
		return
	}
	r.started = true
	if r.Log == nil {
		r.Log = logger.NewNop()
	}
	r.products = r.Dataset.Products()
	r.arena = matching.NewArena(0)
	r.sum = Summary{
		RunID:          r.RunID,
		Participant:    r.Participant,
		InitialBalance: r.Ledger.Snapshot(),
	}
}

// Run 从第一个时间戳开始，每个时间戳恰好处理一次，直到最后一个。
// ctx 只在 tick 之间检查。
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	ts, ok := r.Clock.First()
	if !ok {
		return Summary{}, ErrEmptyDataset
	}
	r.init()
	for {
		if err := ctx.Err(); err != nil {
			return r.finish(), err
		}
		r.Step(ts)
		if r.Clock.IsLast(ts) {
			break
		}
		next, ok := r.Clock.Next(ts)
		// wrap 时 Next 会回到起点，这里不再重复回放
		if !ok || next <= ts {
			break
		}
		ts = next
	}
	return r.finish(), nil
}

// Step 处理一个时间戳并返回报告。第一次调用视为首个 tick。
func (r *Runner) Step(ts string) TickReport {
	r.init()
	tc := &TickContext{
		Index:     r.tick,
		Timestamp: ts,
		First:     r.tick == 0,
		Final:     r.Clock.IsLast(ts),
		slotOf:    make(map[uint64]int),
	}
	r.tick++

	r.loadArena(tc)
	r.computeStats(tc)
	r.updateForecast(tc)
	if !tc.First {
		r.cancelStale(tc)
		if !tc.Final {
			r.placeNew(tc)
		}
	}
	r.match(tc)
	r.settle(tc)
	r.carry(tc)

	rep := r.report(tc)
	r.record(rep)
	return rep
}

// loadArena 本 tick 的数据集订单与参与者结转订单放入 arena。
func (r *Runner) loadArena(tc *TickContext) {
	r.arena.Reset()
	tc.Arena = r.arena
	for _, o := range r.Dataset.OrdersAt(tc.Timestamp) {
		tc.Arena.Add(o)
	}
	for _, o := range r.Orders.Open() {
		tc.slotOf[o.ID] = tc.Arena.Add(o)
	}
}

func (r *Runner) computeStats(tc *TickContext) {
	orders := make([]order.Order, 0, tc.Arena.Len())
	for i := 0; i < tc.Arena.Len(); i++ {
		orders = append(orders, *tc.Arena.Get(i))
	}
	tc.Quotes = r.Quotes.Refresh(tc.Timestamp, r.products, orders)
	if r.Analyzer != nil {
		r.Analyzer.OnTick(r.Quotes.References())
	}
}

// updateForecast 记录本 tick 的参考价。交易对两侧都出现过之前没有参考价，不记录；
// 此后缺失一侧时沿用最后已知价格，所以每个 tick 恰好记录一个点。首个 tick 不做预测。
func (r *Runner) updateForecast(tc *TickContext) {
	for _, p := range r.products {
		if ref, ok := tc.Quotes[p].Reference(); ok {
			r.Forecaster.Observe(p, ref)
		}
	}
	if tc.First {
		return
	}
	tc.Forecasts = make(map[order.Product]strategy.Forecast, len(r.products))
	for _, p := range r.products {
		tc.Forecasts[p] = r.Forecaster.Predict(p)
	}
}

func (r *Runner) view(tc *TickContext) strategy.View {
	return strategy.View{
		Timestamp: tc.Timestamp,
		Products:  r.products,
		Quotes:    tc.Quotes,
		Forecasts: tc.Forecasts,
	}
}

// cancelStale 撤销策略判定失效的结转单，按订单自身价格与剩余数量释放冻结。
func (r *Runner) cancelStale(tc *TickContext) {
	ids := r.Policy.Cancellations(r.view(tc), r.Orders.Carried())
	for _, id := range ids {
		o, err := r.Orders.Cancel(id)
		if err != nil {
			r.Log.LogError(err, map[string]interface{}{"tick": tc.Timestamp, "order_id": id})
			continue
		}
		if slot, ok := tc.slotOf[id]; ok {
			tc.Arena.Get(slot).Status = order.StatusCanceled
		}
		tc.Cancelled = append(tc.Cancelled, o)
		ccy, released := o.Reserved()
		r.Log.LogOrder("order_cancelled", o.ID, map[string]interface{}{
			"tick":     tc.Timestamp,
			"product":  o.Product.String(),
			"side":     string(o.Side),
			"price":    o.Price,
			"qty":      o.Quantity,
			"released": released,
			"currency": ccy,
		})
	}
}

// placeNew 资金检查与冻结通过的订单才进入 arena，否则静默跳过。
func (r *Runner) placeNew(tc *TickContext) {
	for _, prop := range r.Policy.Proposals(r.view(tc)) {
		prop.Timestamp = tc.Timestamp
		if r.Risk != nil {
			if err := r.Risk.PreOrder(prop); err != nil {
				tc.Skipped++
				r.Log.LogRisk(err.Error(), map[string]interface{}{
					"tick":    tc.Timestamp,
					"product": prop.Product.String(),
					"reason":  err.Error(),
				})
				continue
			}
		}
		placed, ok, err := r.Orders.Place(prop)
		if err != nil || !ok {
			tc.Skipped++
			reason := "insufficient_funds"
			if err != nil {
				reason = err.Error()
			}
			r.Log.LogOrder("order_skipped", 0, map[string]interface{}{
				"tick":    tc.Timestamp,
				"product": prop.Product.String(),
				"side":    string(prop.Side),
				"reason":  reason,
			})
			continue
		}
		tc.slotOf[placed.ID] = tc.Arena.Add(placed)
		tc.Placed = append(tc.Placed, placed)
		r.Log.LogOrder("order_placed", placed.ID, map[string]interface{}{
			"tick":    tc.Timestamp,
			"product": placed.Product.String(),
			"side":    string(placed.Side),
			"price":   placed.Price,
			"qty":     placed.Quantity,
		})
	}
}

func (r *Runner) match(tc *TickContext) {
	tc.Results = make(map[order.Product]matching.Result, len(r.products))
	for _, p := range r.products {
		tc.Results[p] = matching.Match(tc.Arena, p, tc.Timestamp, r.Participant)
	}
}

// settle 对参与者一方（自成交时两方）逐笔结算。
func (r *Runner) settle(tc *TickContext) {
	for _, p := range r.products {
		for _, t := range tc.Results[p].Trades {
			tc.Market++
			sides := t.SidesOf(r.Participant)
			if len(sides) == 0 {
				continue
			}
			tc.Trades = append(tc.Trades, t)
			for _, side := range sides {
				r.Ledger.Settle(t, side)
				r.Positions.Apply(t, side)
				if r.Analyzer != nil {
					r.Analyzer.OnFill(t, side)
				}
				r.Log.LogTrade("trade_settled", map[string]interface{}{
					"tick":       tc.Timestamp,
					"product":    p.String(),
					"side":       string(side),
					"price":      t.Price,
					"qty":        t.Quantity,
					"priceDelta": t.PriceDelta,
				})
			}
		}
	}
}

// carry 撮合报告的未完成订单按剩余数量结转，其余未撤销的参与者订单已完全成交。
func (r *Runner) carry(tc *TickContext) {
	unresolved := make(map[int]bool)
	for _, p := range r.products {
		for _, idx := range tc.Results[p].Unresolved {
			unresolved[idx] = true
		}
	}
	ids := make([]uint64, 0, len(tc.slotOf))
	for id := range tc.slotOf {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		idx := tc.slotOf[id]
		slot := tc.Arena.Get(idx)
		if slot.Status == order.StatusCanceled {
			continue
		}
		remaining := 0.0
		if unresolved[idx] {
			remaining = slot.Quantity
		}
		o, err := r.Orders.Sync(id, remaining)
		if err != nil {
			r.Log.LogError(err, map[string]interface{}{"tick": tc.Timestamp, "order_id": id})
			continue
		}
		if o.Status == order.StatusCarryover {
			tc.Carried = append(tc.Carried, o)
		}
	}
}

func (r *Runner) report(tc *TickContext) TickReport {
	traded := make(map[order.Product]float64)
	for p, res := range tc.Results {
		if q := res.TradedQty(); q > 0 {
			traded[p] = q
		}
	}
	bal := r.Ledger.Snapshot()
	refs := r.Quotes.References()
	rep := TickReport{
		RunID:        r.RunID,
		Index:        tc.Index,
		Timestamp:    tc.Timestamp,
		First:        tc.First,
		Final:        tc.Final,
		Quotes:       tc.Quotes,
		Forecasts:    tc.Forecasts,
		Placed:       tc.Placed,
		Cancelled:    tc.Cancelled,
		Skipped:      tc.Skipped,
		Trades:       tc.Trades,
		MarketTrades: tc.Market,
		TradedQty:    traded,
		Carried:      tc.Carried,
		Balances:     bal,
		Portfolio:    inventory.Value(bal, r.Valuation, refs),
		Positions:    r.Positions.Mark(refs),
	}

	if r.sum.Ticks == 0 {
		r.sum.FirstTick = tc.Timestamp
		r.sum.InitialValue = rep.Portfolio
	}
	r.sum.Ticks++
	r.sum.LastTick = tc.Timestamp
	r.sum.Placed += len(tc.Placed)
	r.sum.Cancelled += len(tc.Cancelled)
	r.sum.Skipped += tc.Skipped
	r.sum.Trades += len(tc.Trades)
	r.sum.MarketTrades += tc.Market

	r.Log.LogTick(map[string]interface{}{
		"tick":      tc.Timestamp,
		"index":     tc.Index,
		"trades":    len(tc.Trades),
		"placed":    len(tc.Placed),
		"cancelled": len(tc.Cancelled),
		"open":      len(tc.Carried),
	})
	return rep
}

func (r *Runner) record(rep TickReport) {
	for _, rec := range r.Recorders {
		if err := rec.Record(rep); err != nil {
			r.Log.LogError(err, map[string]interface{}{"tick": rep.Timestamp, "stage": "record"})
		}
	}
}

// finish 汇总并通知实现了 Finisher 的 Recorder。
func (r *Runner) finish() Summary {
	sum := r.sum
	sum.OpenOrders = len(r.Orders.Open())
	sum.FinalBalance = r.Ledger.Snapshot()
	refs := r.Quotes.References()
	sum.FinalValue = inventory.Value(sum.FinalBalance, r.Valuation, refs)
	sum.Positions = r.Positions.Mark(refs)
	if r.Analyzer != nil {
		sum.PostTrade = r.Analyzer.Stats()
		sum.Fills = r.Analyzer.Fills()
		sum.SalesImpact = r.Analyzer.SalesImpact()
	}
	for _, rec := range r.Recorders {
		if f, ok := rec.(Finisher); ok {
			if err := f.Finish(sum); err != nil {
				r.Log.LogError(err, map[string]interface{}{"stage": "finish"})
			}
		}
	}
	r.Log.LogRun(map[string]interface{}{
		"runId":          sum.RunID,
		"ticks":          sum.Ticks,
		"trades":         sum.Trades,
		"portfolioValue": sum.FinalValue.Total,
	})
	return sum
}
