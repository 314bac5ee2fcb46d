package store

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"trade-journal/internal/models"
)

// Property: saving a trade and reading it back yields the same user fields
// and the same cached derived fields.
func TestProperty_TradeRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "property.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	pairs := []string{"EURUSD", "GBPUSD", "USDJPY", "XAUUSD", "BTCUSD"}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seq := 0

	properties.Property("save then get returns the same trade", prop.ForAll(
		func(pairIdx int, sell bool, entry, move float64, minutes int64, closed bool, score int, tags []string) bool {
			ctx := context.Background()
			seq++

			tr := models.Trade{
				ID:         fmt.Sprintf("prop-%d", seq),
				Journal:    "main",
				Pair:       pairs[pairIdx%len(pairs)],
				Direction:  models.Buy,
				LotSize:    0.5,
				EntryPrice: entry,
				OpenTime:   base.Add(time.Duration(minutes) * time.Minute),
				Tags:       tags,
				Auto:       models.AutoCalculated{Score: score, Outcome: models.Neutral, Status: models.StatusOpen},
			}
			if sell {
				tr.Direction = models.Sell
			}
			if closed {
				tr.ClosePrice = entry + move
				tr.CloseTime = tr.OpenTime.Add(time.Hour)
				tr.Auto.Status = models.StatusClosed
				tr.Auto.PL = move * 1000
			}

			if err := s.SaveTrade(ctx, &tr); err != nil {
				t.Logf("save failed: %v", err)
				return false
			}
			got, err := s.GetTrade(ctx, tr.ID)
			if err != nil {
				t.Logf("get failed: %v", err)
				return false
			}

			if !got.OpenTime.Equal(tr.OpenTime) || !got.CloseTime.Equal(tr.CloseTime) {
				return false
			}
			// Times compare by instant; align them before a deep compare.
			got.OpenTime, got.CloseTime = tr.OpenTime, tr.CloseTime
			got.CreatedAt, got.UpdatedAt = tr.CreatedAt, tr.UpdatedAt
			if len(tr.Tags) == 0 {
				got.Tags = tr.Tags
			}
			return reflect.DeepEqual(*got, tr)
		},
		gen.IntRange(0, 100),
		gen.Bool(),
		gen.Float64Range(0.5, 2000),
		gen.Float64Range(-5, 5),
		gen.Int64Range(0, 500000),
		gen.Bool(),
		gen.IntRange(0, 100),
		gen.SliceOfN(3, gen.OneConstOf("breakout", "news", "range")),
	))

	properties.TestingRun(t)
}
