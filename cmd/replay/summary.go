package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"market-replay-go/sim"
)

// writeSummaryCSV 每个币种一行，run 级字段在每行重复，便于表格工具直接筛选。
func writeSummaryCSV(path string, sum sim.Summary) error {
	if sum.Ticks == 0 {
		return fmt.Errorf("no summary data")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	header := []string{
		"runId", "ticks", "trades", "marketTrades", "placed", "cancelled", "skipped", "openOrders",
		"initialValue", "finalValue", "adverseSelectionRate",
		"currency", "initialStandard", "finalStandard", "finalReserved", "salesImpact",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, ccy := range summaryCurrencies(sum) {
		record := []string{
			sum.RunID,
			fmt.Sprintf("%d", sum.Ticks),
			fmt.Sprintf("%d", sum.Trades),
			fmt.Sprintf("%d", sum.MarketTrades),
			fmt.Sprintf("%d", sum.Placed),
			fmt.Sprintf("%d", sum.Cancelled),
			fmt.Sprintf("%d", sum.Skipped),
			fmt.Sprintf("%d", sum.OpenOrders),
			fmt.Sprintf("%.8f", sum.InitialValue.Total),
			fmt.Sprintf("%.8f", sum.FinalValue.Total),
			fmt.Sprintf("%.6f", sum.PostTrade.AdverseSelectionRate),
			ccy,
			fmt.Sprintf("%.8f", sum.InitialBalance.Standard[ccy]),
			fmt.Sprintf("%.8f", sum.FinalBalance.Standard[ccy]),
			fmt.Sprintf("%.8f", sum.FinalBalance.Reserved[ccy]),
			fmt.Sprintf("%.8f", sum.SalesImpact[ccy]),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func summaryCurrencies(sum sim.Summary) []string {
	set := make(map[string]struct{})
	for _, m := range []map[string]float64{
		sum.InitialBalance.Standard, sum.FinalBalance.Standard, sum.FinalBalance.Reserved, sum.SalesImpact,
	} {
		for ccy := range m {
			set[ccy] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for ccy := range set {
		out = append(out, ccy)
	}
	sort.Strings(out)
	return out
}
