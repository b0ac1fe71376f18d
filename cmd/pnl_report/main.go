package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"market-replay-go/internal/store"
)

// stats 按交易对累计参与者成交，名义以各自的 quote 计。
type stats struct {
	trades       int
	buyQty       float64
	sellQty      float64
	buyNotional  float64
	sellNotional float64
	priceImprove float64 // sum(priceDelta*qty)，买方因按卖价成交而退回的 quote
}

func (s *stats) add(side string, price, qty, delta float64) {
	if qty <= 0 || price <= 0 {
		return
	}
	notion := price * qty
	s.trades++
	switch side {
	case "bid":
		s.buyQty += qty
		s.buyNotional += notion
		s.priceImprove += delta * qty
	case "ask":
		s.sellQty += qty
		s.sellNotional += notion
	}
}

func main() {
	logPath := flag.String("log", "", "回放 JSON 日志路径（log.format=json）")
	journalPath := flag.String("journal", "", "Pebble 回放记录目录，与 -log 二选一")
	runID := flag.String("run", "", "journal 模式下的 run ID，为空时列出所有 run")
	product := flag.String("product", "", "仅统计指定交易对 (默认全量)")
	sinceStr := flag.String("since", "", "仅统计此时间之后的记录 (RFC3339，例如 2025-11-22T00:00:00Z)")
	flag.Parse()

	switch {
	case *journalPath != "":
		if err := journalReport(os.Stdout, *journalPath, *runID); err != nil {
			fmt.Fprintf(os.Stderr, "读取回放记录失败: %v\n", err)
			os.Exit(1)
		}
	case *logPath != "":
		var since time.Time
		if *sinceStr != "" {
			var err error
			since, err = time.Parse(time.RFC3339Nano, *sinceStr)
			if err != nil {
				fmt.Fprintf(os.Stderr, "解析 since 参数失败: %v\n", err)
				os.Exit(1)
			}
		}
		f, err := os.Open(*logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "无法读取日志: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		byProduct, err := scanLog(f, *product, since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "读取日志出错: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("统计文件: %s\n", *logPath)
		printStats(os.Stdout, byProduct)
	default:
		fmt.Fprintln(os.Stderr, "需要 -log 或 -journal")
		os.Exit(2)
	}
}

// scanLog 统计日志中的 trade_settled 事件。
func scanLog(r io.Reader, product string, since time.Time) (map[string]*stats, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	out := make(map[string]*stats)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, "{")
		if idx == -1 {
			continue
		}
		var evt map[string]interface{}
		if err := json.Unmarshal([]byte(line[idx:]), &evt); err != nil {
			continue
		}
		if name, _ := evt["event"].(string); name != "trade_settled" {
			continue
		}
		prod, _ := evt["product"].(string)
		if product != "" && prod != product {
			continue
		}
		if !since.IsZero() {
			if tsStr, ok := evt["ts"].(string); ok {
				if ts, err := time.Parse(time.RFC3339Nano, tsStr); err == nil && ts.Before(since) {
					continue
				}
			}
		}
		st, ok := out[prod]
		if !ok {
			st = &stats{}
			out[prod] = st
		}
		side, _ := evt["side"].(string)
		st.add(side, toFloat(evt["price"]), toFloat(evt["qty"]), toFloat(evt["priceDelta"]))
	}
	return out, scanner.Err()
}

func printStats(w io.Writer, byProduct map[string]*stats) {
	names := make([]string, 0, len(byProduct))
	for k := range byProduct {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		st := byProduct[name]
		fmt.Fprintf(w, "交易对: %s\n", name)
		fmt.Fprintf(w, "  成交笔数: %d\n", st.trades)
		fmt.Fprintf(w, "  买入数量: %.8f 名义: %.8f\n", st.buyQty, st.buyNotional)
		fmt.Fprintf(w, "  卖出数量: %.8f 名义: %.8f\n", st.sellQty, st.sellNotional)
		fmt.Fprintf(w, "  净成交差额: %.8f\n", st.sellNotional-st.buyNotional)
		fmt.Fprintf(w, "  价格改善退回: %.8f\n", st.priceImprove)
	}
}

// journalReport 列出 run，或打印某个 run 每个 tick 的估值。
func journalReport(w io.Writer, path, runID string) error {
	j, err := store.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	if runID == "" {
		ids, err := j.Runs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			rec, err := j.LoadRun(id)
			if err != nil {
				return err
			}
			ticks := 0
			if rec.Summary != nil {
				ticks = rec.Summary.Ticks
			}
			fmt.Fprintf(w, "%s\t%s\t%s\tticks=%d\n", id, rec.StartedAt.Format(time.RFC3339), rec.Dataset, ticks)
		}
		return nil
	}
	ticks, err := j.LoadTicks(runID)
	if err != nil {
		return err
	}
	for _, t := range ticks {
		fmt.Fprintf(w, "%d\t%s\ttrades=%d\tvalue=%.8f %s\n",
			t.Index, t.Timestamp, len(t.Trades), t.Portfolio.Total, t.Portfolio.Quote)
	}
	return nil
}

func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	default:
		return 0
	}
}
