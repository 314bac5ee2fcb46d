package assistant

import (
	"fmt"
	"strings"
	"time"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// TradeDraft is what the model could read from a screenshot. Zero values
// mean the field was not visible.
type TradeDraft struct {
	Pair       string  `json:"pair"`
	Direction  string  `json:"direction"`
	LotSize    float64 `json:"lot_size"`
	EntryPrice float64 `json:"entry_price"`
	ClosePrice float64 `json:"close_price"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	OpenTime   string  `json:"open_time"`
	CloseTime  string  `json:"close_time"`
	Notes      string  `json:"notes"`
	Confidence float64 `json:"confidence"`
}

var draftTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
}

// Trade converts the draft to a trade in the given timezone. Times without
// an offset are read in loc. The result still needs journal validation.
func (d TradeDraft) Trade(loc *time.Location) (models.Trade, error) {
	if loc == nil {
		loc = time.UTC
	}
	dir, err := models.ParseDirection(d.Direction)
	if err != nil {
		return models.Trade{}, apperrors.NewValidationError("direction", d.Direction, err.Error())
	}
	open, err := parseDraftTime(d.OpenTime, loc)
	if err != nil {
		return models.Trade{}, apperrors.NewValidationError("open_time", d.OpenTime, err.Error())
	}
	closeAt, err := parseDraftTime(d.CloseTime, loc)
	if err != nil {
		return models.Trade{}, apperrors.NewValidationError("close_time", d.CloseTime, err.Error())
	}

	t := models.Trade{
		Pair:       models.NormalizePair(d.Pair),
		Direction:  dir,
		LotSize:    d.LotSize,
		EntryPrice: d.EntryPrice,
		StopLoss:   d.StopLoss,
		TakeProfit: d.TakeProfit,
		OpenTime:   open,
		Notes:      d.Notes,
	}
	if d.ClosePrice > 0 {
		t.ClosePrice = d.ClosePrice
		t.CloseTime = closeAt
	}
	return t, nil
}

func parseDraftTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range draftTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
