package strategy

import "testing"

func TestPolicyFactory_CreateTrend(t *testing.T) {
	factory := NewPolicyFactory()

	p, err := factory.CreatePolicy("trend", DefaultPolicyConfig(), map[string]float64{"BTC": 1})
	if err != nil {
		t.Fatalf("Failed to create trend policy: %v", err)
	}
	tp, ok := p.(*TrendPolicy)
	if !ok {
		t.Fatalf("Policy should be of type *TrendPolicy, got %T", p)
	}
	if tp.StandardAmount("BTC") != 0.1 {
		t.Errorf("unexpected standard amount %f", tp.StandardAmount("BTC"))
	}

	if _, err := factory.CreatePolicy("", DefaultPolicyConfig(), nil); err != nil {
		t.Errorf("empty type should default to trend: %v", err)
	}
}

func TestPolicyFactory_CreatePassive(t *testing.T) {
	p, err := NewPolicyFactory().CreatePolicy("passive", PolicyConfig{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Proposals(View{})) != 0 || len(p.Cancellations(View{}, nil)) != 0 {
		t.Errorf("passive policy should do nothing")
	}
}

func TestPolicyFactory_Unknown(t *testing.T) {
	if _, err := NewPolicyFactory().CreatePolicy("grid", DefaultPolicyConfig(), nil); err == nil {
		t.Error("expected error for unknown policy type")
	}
}
