// Package journal holds the application state: the active settings, the
// trade store and the calculator bound to them. Every write recomputes the
// trade's derived fields before it is saved.
package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"trade-journal/internal/analysis/metrics"
	"trade-journal/internal/analysis/stats"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/gamification"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
	"trade-journal/internal/performance"
	"trade-journal/internal/store"
)

// Options configures a Service.
type Options struct {
	DefaultJournal string
	Workers        int
	BatchSize      int
	Logger         zerolog.Logger
	Now            func() time.Time
}

// Service is the journal application state.
type Service struct {
	store          store.DataStore
	pool           *performance.WorkerPool
	logger         zerolog.Logger
	now            func() time.Time
	batchSize      int
	defaultJournal string

	mu   sync.RWMutex
	calc *metrics.Calculator
}

// NewService creates a service over a store and a settings snapshot.
func NewService(ds store.DataStore, settings models.AppSettings, opts Options) *Service {
	if opts.DefaultJournal == "" {
		opts.DefaultJournal = "main"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	pool := performance.NewWorkerPool(opts.Workers)
	pool.Start()

	return &Service{
		store:          ds,
		pool:           pool,
		logger:         opts.Logger,
		now:            opts.Now,
		batchSize:      opts.BatchSize,
		defaultJournal: opts.DefaultJournal,
		calc:           metrics.NewCalculator(settings),
	}
}

// Close stops the worker pool. The store is owned by the caller.
func (s *Service) Close() {
	s.pool.Stop()
}

// Settings returns the active settings.
func (s *Service) Settings() models.AppSettings {
	return s.calculator().Settings()
}

// DefaultJournal returns the journal used when none is named.
func (s *Service) DefaultJournal() string {
	return s.defaultJournal
}

// PoolStats exposes the recompute pool counters.
func (s *Service) PoolStats() performance.PoolStats {
	return s.pool.Stats()
}

func (s *Service) calculator() *metrics.Calculator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calc
}

func (s *Service) journalName(name string) string {
	if name == "" {
		return s.defaultJournal
	}
	return name
}

// prepare validates a trade and fills its derived fields.
func (s *Service) prepare(t *models.Trade) error {
	calc := s.calculator()
	t.Pair = models.NormalizePair(t.Pair)
	if err := ValidateTrade(*t, calc.Settings()); err != nil {
		return err
	}
	t.Auto = calc.Compute(*t)
	return nil
}

// AddTrade validates, computes and stores a new trade. The trade's ID and
// timestamps are assigned here.
func (s *Service) AddTrade(ctx context.Context, t models.Trade) (*models.Trade, error) {
	t.ID = uuid.New().String()
	t.Journal = s.journalName(t.Journal)
	now := s.now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	if err := s.prepare(&t); err != nil {
		return nil, err
	}
	if err := s.store.SaveTrade(ctx, &t); err != nil {
		return nil, apperrors.NewTradeError(t.ID, "add", err)
	}

	logging.LogTradeComputed(logging.WithJournal(s.logger, t.Journal), t.ID, t.Pair, string(t.Auto.Outcome), t.Auto.PL, t.Auto.Score)
	return &t, nil
}

// UpdateTrade replaces the user fields of an existing trade and recomputes
// it. CreatedAt and the journal are kept from the stored copy.
func (s *Service) UpdateTrade(ctx context.Context, t models.Trade) (*models.Trade, error) {
	existing, err := s.store.GetTrade(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Journal = existing.Journal
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = s.now().UTC()

	if err := s.prepare(&t); err != nil {
		return nil, err
	}
	if err := s.store.SaveTrade(ctx, &t); err != nil {
		return nil, apperrors.NewTradeError(t.ID, "update", err)
	}

	logging.LogTradeComputed(logging.WithJournal(s.logger, t.Journal), t.ID, t.Pair, string(t.Auto.Outcome), t.Auto.PL, t.Auto.Score)
	return &t, nil
}

// CloseTrade records the exit of an open trade.
func (s *Service) CloseTrade(ctx context.Context, id string, price float64, at time.Time) (*models.Trade, error) {
	t, err := s.store.GetTrade(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsOpen() {
		return nil, apperrors.NewTradeError(id, "close", fmt.Errorf("%w: trade is already closed", apperrors.ErrInvalidTrade))
	}
	if price <= 0 {
		return nil, apperrors.NewTradeError(id, "close", apperrors.NewValidationError("close_price", price, "must be positive"))
	}
	if at.IsZero() {
		at = s.now()
	}
	t.ClosePrice = price
	t.CloseTime = at.UTC()
	return s.UpdateTrade(ctx, *t)
}

// Trade returns one live trade.
func (s *Service) Trade(ctx context.Context, id string) (*models.Trade, error) {
	return s.store.GetTrade(ctx, id)
}

// Trades lists live trades. An empty journal in the filter means the
// default journal.
func (s *Service) Trades(ctx context.Context, filter store.TradeFilter) ([]models.Trade, error) {
	filter.Journal = s.journalName(filter.Journal)
	return s.store.GetTrades(ctx, filter)
}

// Journal loads every live trade of a journal.
func (s *Service) Journal(ctx context.Context, name string) (models.Journal, error) {
	name = s.journalName(name)
	trades, err := s.store.GetTrades(ctx, store.TradeFilter{Journal: name})
	if err != nil {
		return models.Journal{}, err
	}
	return models.Journal{Name: name, Trades: trades}, nil
}

// Journals lists the journals that hold trades.
func (s *Service) Journals(ctx context.Context) ([]string, error) {
	return s.store.ListJournals(ctx)
}

// DeleteTrade moves a trade to the trash.
func (s *Service) DeleteTrade(ctx context.Context, id string) error {
	if err := s.store.DeleteTrade(ctx, id, s.now()); err != nil {
		return err
	}
	logger := logging.WithTradeID(s.logger, id)
	logger.Info().Msg("Trade moved to trash")
	return nil
}

// RestoreTrade takes a trade out of the trash and recomputes it against the
// current settings.
func (s *Service) RestoreTrade(ctx context.Context, id string) (*models.Trade, error) {
	if err := s.store.RestoreTrade(ctx, id); err != nil {
		return nil, err
	}
	t, err := s.store.GetTrade(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Auto = s.calculator().Compute(*t)
	if err := s.store.SaveTrade(ctx, t); err != nil {
		return nil, apperrors.NewTradeError(id, "restore", err)
	}
	logger := logging.WithTradeID(s.logger, id)
	logger.Info().Msg("Trade restored")
	return t, nil
}

// Trash lists trashed trades of a journal.
func (s *Service) Trash(ctx context.Context, journal string) ([]store.TrashedTrade, error) {
	return s.store.GetTrash(ctx, s.journalName(journal))
}

// PurgeExpired permanently removes trash older than the retention period.
// A retention of zero days keeps the trash forever.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	days := s.Settings().TrashRetentionDays
	if days <= 0 {
		return 0, nil
	}
	cutoff := s.now().AddDate(0, 0, -days)
	n, err := s.store.PurgeTrash(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("purged", n).Time("cutoff", cutoff).Msg("Trash purged")
	}
	return n, nil
}

// Recompute recalculates every live trade of a journal (all journals when
// name is empty) and writes them back in batches.
func (s *Service) Recompute(ctx context.Context, name string) (int, error) {
	start := time.Now()
	calc := s.calculator()
	logger := logging.WithOperation(s.logger, "recompute")

	trades, err := s.store.GetTrades(ctx, store.TradeFilter{Journal: name})
	if err != nil {
		logging.LogRecompute(logger, name, 0, time.Since(start), err)
		return 0, err
	}

	computed, err := performance.Map(ctx, s.pool, trades, func(t models.Trade) models.Trade {
		t.Auto = calc.Compute(t)
		return t
	})
	if err != nil {
		logging.LogRecompute(logger, name, 0, time.Since(start), err)
		return 0, err
	}

	batch := performance.NewBatchProcessor(s.batchSize, func(items []models.Trade) error {
		return s.store.SaveTrades(ctx, items)
	})
	for _, t := range computed {
		if err = batch.Add(t); err != nil {
			break
		}
	}
	if err == nil {
		err = batch.Flush()
	}
	if err == nil && name == "" {
		err = s.store.SetMeta(ctx, store.MetaLastRecompute, s.now().UTC().Format(time.RFC3339))
	}

	logging.LogRecompute(logger, name, batch.Processed(), time.Since(start), err)
	return batch.Processed(), err
}

// UpdateSettings swaps the active settings and recomputes every trade so
// the cached fields match them.
func (s *Service) UpdateSettings(ctx context.Context, settings models.AppSettings) (int, error) {
	s.mu.Lock()
	s.calc = metrics.NewCalculator(settings)
	s.mu.Unlock()

	n, err := s.Recompute(ctx, "")
	if err != nil {
		return n, err
	}
	return n, s.saveFingerprint(ctx, settings)
}

// SyncSettings recomputes every trade when the settings differ from the
// ones the stored trades were computed with. It reports whether a
// recompute ran.
func (s *Service) SyncSettings(ctx context.Context) (bool, error) {
	settings := s.Settings()
	current, err := Fingerprint(settings)
	if err != nil {
		return false, err
	}
	stored, err := s.store.GetMeta(ctx, store.MetaSettingsFingerprint)
	if err != nil {
		return false, err
	}
	if stored == current {
		return false, nil
	}

	s.logger.Info().Msg("Settings changed, recomputing trades")
	if _, err := s.Recompute(ctx, ""); err != nil {
		return true, err
	}
	return true, s.store.SetMeta(ctx, store.MetaSettingsFingerprint, current)
}

func (s *Service) saveFingerprint(ctx context.Context, settings models.AppSettings) error {
	fp, err := Fingerprint(settings)
	if err != nil {
		return err
	}
	return s.store.SetMeta(ctx, store.MetaSettingsFingerprint, fp)
}

// Summary aggregates a journal overall and per period.
func (s *Service) Summary(ctx context.Context, name string) (stats.Summary, error) {
	j, err := s.Journal(ctx, name)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(j.Trades, s.Settings()), nil
}

// Groups buckets a journal's trades by the given key.
func (s *Service) Groups(ctx context.Context, name string, grouping stats.Grouping) ([]models.GroupMetrics, error) {
	j, err := s.Journal(ctx, name)
	if err != nil {
		return nil, err
	}
	return stats.GroupBy(j.Trades, grouping, s.Settings())
}

// Progress evaluates levels, achievements and the leaderboard.
func (s *Service) Progress(ctx context.Context, name string) (models.GamificationState, error) {
	j, err := s.Journal(ctx, name)
	if err != nil {
		return models.GamificationState{}, err
	}
	return gamification.Evaluate(j, s.Settings()), nil
}

// CheckLimits returns one LimitError per day or week whose losses exceeded
// the plan, joined, or nil.
func (s *Service) CheckLimits(ctx context.Context, name string) error {
	summary, err := s.Summary(ctx, name)
	if err != nil {
		return err
	}

	var errs []error
	for _, b := range summary.Breaches {
		logging.LogLimitBreach(s.logger, b.Rule, b.Period, b.Lost, b.Limit)
		errs = append(errs, apperrors.NewLimitError(b.Rule, b.Period, b.Lost, b.Limit))
	}
	return errors.Join(errs...)
}
