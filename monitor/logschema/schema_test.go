package logschema

import "testing"

func TestValidate(t *testing.T) {
	err := Validate("trade_settled", map[string]interface{}{
		"tick":       "2020/03/17 17:01:24.884492",
		"product":    "ETH/BTC",
		"side":       "bid",
		"price":      0.0219,
		"qty":        1.5,
		"priceDelta": 0.0001,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = Validate("trade_settled", map[string]interface{}{
		"product": "ETH/BTC",
	})
	if err == nil {
		t.Fatalf("expected error for missing fields")
	}
	if err := Validate("unknown_event", nil); err != nil {
		t.Fatalf("unknown events are not validated: %v", err)
	}
}

func TestKnownEvents(t *testing.T) {
	names := Known()
	if len(names) == 0 {
		t.Fatalf("expected non-empty schema list")
	}
	found := false
	for _, n := range names {
		if n == "risk_event" {
			found = true
		}
	}
	if !found {
		t.Fatalf("risk_event not found in schemas")
	}
}
