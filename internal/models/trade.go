package models

import "time"

// Trade is a single logged trade. Everything except Auto is user-entered.
type Trade struct {
	ID            string                `json:"id"`
	Journal       string                `json:"journal"`
	Pair          string                `json:"pair"`
	Direction     Direction             `json:"direction"`
	LotSize       float64               `json:"lot_size"`
	EntryPrice    float64               `json:"entry_price"`
	ClosePrice    float64               `json:"close_price,omitempty"` // <= 0 while the trade is open
	StopLoss      float64               `json:"stop_loss,omitempty"`   // <= 0 means no stop
	TakeProfit    float64               `json:"take_profit,omitempty"` // <= 0 means no target
	OpenTime      time.Time             `json:"open_time"`
	CloseTime     time.Time             `json:"close_time,omitempty"`
	Commission    float64               `json:"commission,omitempty"`
	Swap          float64               `json:"swap,omitempty"`
	SpreadPips    float64               `json:"spread_pips,omitempty"`
	StrategyID    string                `json:"strategy_id,omitempty"`
	RulesFollowed []string              `json:"rules_followed,omitempty"`
	Sentiments    []string              `json:"sentiments,omitempty"`
	Tags          []string              `json:"tags,omitempty"`
	CustomFields  map[string]FieldValue `json:"custom_fields,omitempty"`
	MFEPrice      float64               `json:"mfe_price,omitempty"`
	MAEPrice      float64               `json:"mae_price,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`

	Auto AutoCalculated `json:"auto"`
}

// IsOpen reports whether the trade has no closing price yet.
func (t Trade) IsOpen() bool {
	return t.ClosePrice <= 0
}

// HasStopLoss reports whether a stop-loss was set.
func (t Trade) HasStopLoss() bool {
	return t.StopLoss > 0
}

// HasTakeProfit reports whether a take-profit was set.
func (t Trade) HasTakeProfit() bool {
	return t.TakeProfit > 0
}

// AutoCalculated holds every field derived from a trade's user input and the
// active settings. It is never edited by hand.
type AutoCalculated struct {
	Status            Status   `json:"status"`
	Pips              float64  `json:"pips"`
	RiskPips          float64  `json:"risk_pips"`
	RewardPips        float64  `json:"reward_pips"`
	GrossPL           float64  `json:"gross_pl"`
	PL                float64  `json:"pl"`
	RiskAmount        float64  `json:"risk_amount"`
	RMultiple         float64  `json:"r_multiple"`
	PlannedRR         float64  `json:"planned_rr"`
	RiskPercent       float64  `json:"risk_percent"`
	GainPercent       float64  `json:"gain_percent"`
	Outcome           Outcome  `json:"outcome"`
	Result            Result   `json:"result"`
	HoldingTime       string   `json:"holding_time"`
	HoldingMinutes    int      `json:"holding_minutes"`
	MFEPips           float64  `json:"mfe_pips"`
	MAEPips           float64  `json:"mae_pips"`
	MFERMultiple      float64  `json:"mfe_r_multiple"`
	CaptureEfficiency float64  `json:"capture_efficiency"`
	Score             int      `json:"score"`
	Remark            string   `json:"remark"`
	Breaches          []Breach `json:"breaches,omitempty"`
	MatchedSetups     []string `json:"matched_setups,omitempty"`
}

// Breach is one discipline rule that fired while scoring a trade.
type Breach struct {
	Rule    string `json:"rule"`
	Penalty int    `json:"penalty"`
	Remark  string `json:"remark"`
}

// Journal is one named list of trades.
type Journal struct {
	Name   string  `json:"name"`
	Trades []Trade `json:"trades"`
}

// ClosedTrades returns the trades that have a closing price.
func ClosedTrades(trades []Trade) []Trade {
	closed := make([]Trade, 0, len(trades))
	for _, t := range trades {
		if !t.IsOpen() {
			closed = append(closed, t)
		}
	}
	return closed
}
