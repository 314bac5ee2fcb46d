package stats

import (
	"fmt"
	"sort"
	"strings"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// GroupKey names an attribute trades can be bucketed by.
type GroupKey string

const (
	ByPair        GroupKey = "pair"
	ByDirection   GroupKey = "direction"
	BySession     GroupKey = "session"
	ByHour        GroupKey = "hour"
	ByWeekday     GroupKey = "weekday"
	ByWeekOfMonth GroupKey = "week_of_month"
	ByDayOfMonth  GroupKey = "day_of_month"
	ByMonth       GroupKey = "month"
	ByDuration    GroupKey = "duration"
	ByLotSize     GroupKey = "lot_size"
	ByStrategy    GroupKey = "strategy"
	ByTag         GroupKey = "tag"
	BySentiment   GroupKey = "sentiment"
	ByOutcome     GroupKey = "outcome"
	ByResult      GroupKey = "result"
	ByCustomField GroupKey = "custom_field"
	ByCategory    GroupKey = "category"
)

// GroupKeys lists every supported key in display order.
var GroupKeys = []GroupKey{
	ByPair, ByDirection, BySession, ByHour, ByWeekday, ByWeekOfMonth, ByDayOfMonth, ByMonth,
	ByDuration, ByLotSize, ByStrategy, ByTag, BySentiment, ByOutcome, ByResult, ByCustomField, ByCategory,
}

// Bucket labels for trades without the attribute.
const (
	NoStrategy = "No Strategy"
	Untagged   = "Untagged"
	OffSession = "Off-session"
	NoValue    = "No value"
)

// Grouping selects the attribute trades are bucketed by. FieldID is required for custom_field and
// Category for category.
type Grouping struct {
	Key      GroupKey `json:"key"`
	FieldID  string   `json:"field_id,omitempty"`
	Category string   `json:"category,omitempty"`
}

// bucket is one label a trade falls into. order gives the natural position
// of the bucket; ties sort by label.
type bucket struct {
	label string
	order int
}

type bucketFunc func(t models.Trade) []bucket

// GroupBy buckets trades by grouping.Key and aggregates each bucket against the
// plan's account size. A trade with a multi-valued attribute contributes to
// every bucket it names. Buckets come back in natural order.
func GroupBy(trades []models.Trade, grouping Grouping, settings models.AppSettings) ([]models.GroupMetrics, error) {
	fn, err := bucketer(grouping, settings)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]models.Trade)
	orders := make(map[string]int)
	for _, t := range trades {
		for _, b := range dedupe(fn(t)) {
			groups[b.label] = append(groups[b.label], t)
			orders[b.label] = b.order
		}
	}

	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if orders[labels[i]] != orders[labels[j]] {
			return orders[labels[i]] < orders[labels[j]]
		}
		return labels[i] < labels[j]
	})

	out := make([]models.GroupMetrics, 0, len(labels))
	for _, label := range labels {
		m := Aggregate(groups[label], settings.Plan.AccountSize)
		m.Key = label
		out = append(out, m)
	}
	return out, nil
}

func dedupe(buckets []bucket) []bucket {
	if len(buckets) < 2 {
		return buckets
	}
	seen := make(map[string]bool, len(buckets))
	out := make([]bucket, 0, len(buckets))
	for _, b := range buckets {
		if !seen[b.label] {
			seen[b.label] = true
			out = append(out, b)
		}
	}
	return out
}

func bucketer(grouping Grouping, settings models.AppSettings) (bucketFunc, error) {
	loc := settings.Loc()
	switch grouping.Key {
	case ByPair:
		return func(t models.Trade) []bucket {
			return []bucket{{label: models.NormalizePair(t.Pair)}}
		}, nil
	case ByDirection:
		return func(t models.Trade) []bucket {
			if t.Direction == models.Sell {
				return []bucket{{label: string(models.Sell), order: 1}}
			}
			return []bucket{{label: string(models.Buy)}}
		}, nil
	case BySession:
		return func(t models.Trade) []bucket {
			var out []bucket
			hour := t.OpenTime.In(loc).Hour()
			for i, s := range settings.Sessions {
				if s.Contains(hour) {
					out = append(out, bucket{label: s.Name, order: i})
				}
			}
			if len(out) == 0 {
				return []bucket{{label: OffSession, order: len(settings.Sessions)}}
			}
			return out
		}, nil
	case ByHour:
		return func(t models.Trade) []bucket {
			h := t.OpenTime.In(loc).Hour()
			return []bucket{{label: fmt.Sprintf("%02d:00", h), order: h}}
		}, nil
	case ByWeekday:
		return func(t models.Trade) []bucket {
			wd := t.OpenTime.In(loc).Weekday()
			return []bucket{{label: wd.String(), order: (int(wd) + 6) % 7}}
		}, nil
	case ByWeekOfMonth:
		return func(t models.Trade) []bucket {
			w := WeekOfMonth(t.OpenTime.In(loc).Day())
			return []bucket{{label: fmt.Sprintf("Week %d", w), order: w}}
		}, nil
	case ByDayOfMonth:
		return func(t models.Trade) []bucket {
			d := t.OpenTime.In(loc).Day()
			return []bucket{{label: fmt.Sprintf("%d", d), order: d}}
		}, nil
	case ByMonth:
		return func(t models.Trade) []bucket {
			m := t.OpenTime.In(loc).Month()
			return []bucket{{label: m.String(), order: int(m)}}
		}, nil
	case ByDuration:
		return func(t models.Trade) []bucket {
			if t.IsOpen() {
				return nil
			}
			label, order := DurationBucket(t.Auto.HoldingMinutes)
			return []bucket{{label: label, order: order}}
		}, nil
	case ByLotSize:
		return func(t models.Trade) []bucket {
			label, order := LotBucket(t.LotSize)
			return []bucket{{label: label, order: order}}
		}, nil
	case ByStrategy:
		return func(t models.Trade) []bucket {
			if st, ok := settings.Strategy(t.StrategyID); ok {
				return []bucket{{label: st.Name}}
			}
			return []bucket{{label: NoStrategy, order: 1}}
		}, nil
	case ByTag:
		return listBuckets(func(t models.Trade) []string { return t.Tags }), nil
	case BySentiment:
		return listBuckets(func(t models.Trade) []string { return t.Sentiments }), nil
	case ByOutcome:
		return func(t models.Trade) []bucket {
			if t.IsOpen() {
				return nil
			}
			return []bucket{{label: string(t.Auto.Outcome), order: outcomeOrder[t.Auto.Outcome]}}
		}, nil
	case ByResult:
		return func(t models.Trade) []bucket {
			return []bucket{{label: string(t.Auto.Result), order: resultOrder[t.Auto.Result]}}
		}, nil
	case ByCustomField:
		def, ok := settings.Field(grouping.FieldID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownField, grouping.FieldID)
		}
		return fieldBuckets(def), nil
	case ByCategory:
		for _, cat := range settings.AnalysisCategories {
			if strings.EqualFold(cat.Name, grouping.Category) {
				def, ok := settings.Field(cat.FieldID)
				if !ok {
					def = models.FieldDefinition{ID: cat.FieldID}
				}
				return categoryBuckets(cat, def), nil
			}
		}
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownCategory, grouping.Category)
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownGroupKey, grouping.Key)
}

var outcomeOrder = map[models.Outcome]int{models.Win: 0, models.Loss: 1, models.Neutral: 2}

var resultOrder = map[models.Result]int{
	models.ResultTP: 0, models.ResultSL: 1, models.ResultBE: 2, models.ResultStop: 3, models.ResultRunning: 4,
}

func listBuckets(values func(models.Trade) []string) bucketFunc {
	return func(t models.Trade) []bucket {
		var out []bucket
		for _, v := range values(t) {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, bucket{label: v})
			}
		}
		if len(out) == 0 {
			return []bucket{{label: Untagged, order: 1}}
		}
		return out
	}
}

// fieldBuckets keeps List and Button options in their configured order.
func fieldBuckets(def models.FieldDefinition) bucketFunc {
	var options []string
	switch c := def.Control.(type) {
	case models.ListControl:
		options = c.Options
	case models.ButtonControl:
		options = c.Options
	case models.NumericControl, models.DateControl, models.TimeControl:
		// labels sort lexically
	}
	return func(t models.Trade) []bucket {
		value, ok := t.CustomFields[def.ID]
		labels := def.Labels(value)
		if !ok || len(labels) == 0 {
			return []bucket{{label: NoValue, order: len(options) + 1}}
		}
		out := make([]bucket, 0, len(labels))
		for _, l := range labels {
			out = append(out, bucket{label: l, order: indexOf(options, l, len(options))})
		}
		return out
	}
}

func categoryBuckets(cat models.AnalysisCategory, def models.FieldDefinition) bucketFunc {
	return func(t models.Trade) []bucket {
		value, ok := t.CustomFields[cat.FieldID]
		if !ok {
			return nil
		}
		labels := def.Labels(value)
		var out []bucket
		for i, sub := range cat.SubCategories {
			for _, l := range labels {
				if indexOf(sub.Options, l, -1) >= 0 {
					out = append(out, bucket{label: sub.Name, order: i})
					break
				}
			}
		}
		return out
	}
}

func indexOf(list []string, s string, missing int) int {
	for i, item := range list {
		if item == s {
			return i
		}
	}
	return missing
}

// WeekOfMonth maps a day of the month to weeks 1-5 (days 1-7 are week 1).
func WeekOfMonth(day int) int {
	return (day-1)/7 + 1
}

// DurationBucket labels a holding time.
func DurationBucket(minutes int) (string, int) {
	switch {
	case minutes < 15:
		return "< 15m", 0
	case minutes < 60:
		return "15m - 1h", 1
	case minutes < 4*60:
		return "1h - 4h", 2
	case minutes < 24*60:
		return "4h - 1d", 3
	case minutes < 7*24*60:
		return "1d - 1w", 4
	default:
		return "> 1w", 5
	}
}

// LotBucket labels a position size in standard lots.
func LotBucket(lots float64) (string, int) {
	switch {
	case lots < 0.1:
		return "< 0.1", 0
	case lots < 0.5:
		return "0.1 - 0.5", 1
	case lots < 1:
		return "0.5 - 1", 2
	case lots < 5:
		return "1 - 5", 3
	default:
		return ">= 5", 4
	}
}
