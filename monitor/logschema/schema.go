package logschema

import (
	"fmt"
	"sort"
	"strings"
)

// Schema 定义每个日志事件所需的关键字段，便于集中校验。
type Schema struct {
	Event    string
	Required []string
}

var schemas = map[string]Schema{
	"order_placed": {
		Event:    "order_placed",
		Required: []string{"tick", "product", "side", "price", "qty"},
	},
	"order_cancelled": {
		Event:    "order_cancelled",
		Required: []string{"tick", "product", "side", "price", "qty", "released"},
	},
	"order_skipped": {
		Event:    "order_skipped",
		Required: []string{"tick", "product", "side", "reason"},
	},
	"trade_settled": {
		Event:    "trade_settled",
		Required: []string{"tick", "product", "side", "price", "qty", "priceDelta"},
	},
	"tick_summary": {
		Event:    "tick_summary",
		Required: []string{"tick", "index", "trades", "placed", "cancelled", "open"},
	},
	"risk_event": {
		Event:    "risk_event",
		Required: []string{"product", "reason"},
	},
	"run_summary": {
		Event:    "run_summary",
		Required: []string{"runId", "ticks", "trades", "portfolioValue"},
	},
}

// Known 返回所有事件名，便于外部生成文档。
func Known() []string {
	names := make([]string, 0, len(schemas))
	for k := range schemas {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate 检查日志字段是否包含 schema 中要求的 key。
func Validate(event string, fields map[string]interface{}) error {
	s, ok := schemas[event]
	if !ok {
		return nil
	}
	var missing []string
	for _, key := range s.Required {
		if _, exists := fields[key]; !exists {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ","))
	}
	return nil
}
