package models

import "testing"

func TestResolvePair(t *testing.T) {
	s := AppSettings{Pairs: map[string]PairConfig{
		"EURUSD":  {PipSize: 0.0001, PipValue: 10},
		"usd/jpy": {PipSize: 0.01, PipValue: 6.5},
		OtherPair: {PipSize: 0.0001, PipValue: 9},
	}}

	tests := []struct {
		symbol string
		want   PairConfig
	}{
		{"EURUSD", PairConfig{PipSize: 0.0001, PipValue: 10}},
		{"eur/usd", PairConfig{PipSize: 0.0001, PipValue: 10}},
		{"USDJPY", PairConfig{PipSize: 0.01, PipValue: 6.5}},
		{"XAUUSD", PairConfig{PipSize: 0.0001, PipValue: 9}},
	}
	for _, tt := range tests {
		if got := s.ResolvePair(tt.symbol); got != tt.want {
			t.Errorf("ResolvePair(%q) = %+v, want %+v", tt.symbol, got, tt.want)
		}
	}
}

func TestResolvePairCollidingSpellings(t *testing.T) {
	s := AppSettings{Pairs: map[string]PairConfig{
		"gbp_usd": {PipSize: 0.0001, PipValue: 7},
		"GBP/USD": {PipSize: 0.0001, PipValue: 8},
		"gbp-usd": {PipSize: 0.0001, PipValue: 9},
	}}
	// "GBP/USD" sorts first among the spellings.
	for i := 0; i < 50; i++ {
		if got := s.ResolvePair("GBPUSD"); got.PipValue != 8 {
			t.Fatalf("run %d: ResolvePair = %+v, want pip value 8", i, got)
		}
	}

	s.Pairs["GBPUSD"] = PairConfig{PipSize: 0.0001, PipValue: 10}
	if got := s.ResolvePair("gbp/usd"); got.PipValue != 10 {
		t.Errorf("normalized key should win, got %+v", got)
	}
}
