package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/gamification"
	"trade-journal/internal/models"
)

// SettingsFile is the user-editable journal vocabulary in settings.toml.
// Viper lower-cases map keys, so pair symbols and field IDs are normalized
// when converted.
type SettingsFile struct {
	Pairs        map[string]PairEntry `mapstructure:"pairs"`
	Keywords     map[string]string    `mapstructure:"keywords"`
	Sessions     []SessionEntry       `mapstructure:"sessions"`
	Strategies   []StrategyEntry      `mapstructure:"strategies"`
	CustomFields []FieldEntry         `mapstructure:"custom_fields"`
	Categories   []CategoryEntry      `mapstructure:"categories"`
	Levels       []LevelEntry         `mapstructure:"levels"`
	Achievements []AchievementEntry   `mapstructure:"achievements"`
}

// PairEntry is one row of the pip table.
type PairEntry struct {
	PipSize  float64 `mapstructure:"pip_size"`
	PipValue float64 `mapstructure:"pip_value"`
}

// SessionEntry is a named trading session in local hours.
type SessionEntry struct {
	Name      string `mapstructure:"name"`
	StartHour int    `mapstructure:"start_hour"`
	EndHour   int    `mapstructure:"end_hour"`
}

// StrategyEntry is a strategy with its checklist and setups.
type StrategyEntry struct {
	ID     string       `mapstructure:"id"`
	Name   string       `mapstructure:"name"`
	Rules  []string     `mapstructure:"rules"`
	Setups []SetupEntry `mapstructure:"setups"`
}

// SetupEntry is a named set of field conditions.
type SetupEntry struct {
	Name       string              `mapstructure:"name"`
	Conditions map[string][]string `mapstructure:"conditions"`
}

// FieldEntry is the flat TOML shape of a custom field.
type FieldEntry struct {
	ID       string   `mapstructure:"id"`
	Name     string   `mapstructure:"name"`
	Type     string   `mapstructure:"type"`
	Options  []string `mapstructure:"options"`
	Multiple bool     `mapstructure:"multiple"`
	Min      float64  `mapstructure:"min"`
	Max      float64  `mapstructure:"max"`
}

// CategoryEntry groups the options of one field into sub-categories.
type CategoryEntry struct {
	Name          string             `mapstructure:"name"`
	FieldID       string             `mapstructure:"field_id"`
	SubCategories []SubCategoryEntry `mapstructure:"sub_categories"`
}

// SubCategoryEntry is a named subset of field options.
type SubCategoryEntry struct {
	Name    string   `mapstructure:"name"`
	Options []string `mapstructure:"options"`
}

// LevelEntry is one rung of the level ladder.
type LevelEntry struct {
	Name        string  `mapstructure:"name"`
	MinTrades   int     `mapstructure:"min_trades"`
	MinAvgScore float64 `mapstructure:"min_avg_score"`
}

// AchievementEntry is a threshold on a history metric.
type AchievementEntry struct {
	Name        string  `mapstructure:"name"`
	Description string  `mapstructure:"description"`
	Metric      string  `mapstructure:"metric"`
	Target      float64 `mapstructure:"target"`
	Badge       bool    `mapstructure:"badge"`
}

var knownMetrics = map[models.AchievementMetric]bool{
	models.MetricClosedTrades:      true,
	models.MetricWinStreak:         true,
	models.MetricDistinctPairs:     true,
	models.MetricSessionsCovered:   true,
	models.MetricPerfectStreak:     true,
	models.MetricTradesWithStop:    true,
	models.MetricProfitableMonths:  true,
	models.MetricJournaledTrades:   true,
	models.MetricRuleCheckedTrades: true,
}

// AppSettings converts the configuration into the engine's settings.
// Empty tables in settings.toml fall back to the built-in defaults.
func (c *Config) AppSettings() (models.AppSettings, error) {
	loc, err := time.LoadLocation(c.Journal.Timezone)
	if err != nil {
		return models.AppSettings{}, &apperrors.ConfigError{File: "config.toml", Key: "journal.timezone", Message: err.Error()}
	}

	s := c.Settings.withDefaults()

	pairs, err := s.pairs()
	if err != nil {
		return models.AppSettings{}, err
	}
	keywords, err := s.keywords()
	if err != nil {
		return models.AppSettings{}, err
	}
	fields, err := s.fields()
	if err != nil {
		return models.AppSettings{}, err
	}
	achievements, err := s.achievements()
	if err != nil {
		return models.AppSettings{}, err
	}

	return models.AppSettings{
		Pairs: pairs,
		Plan: models.TradingPlan{
			AccountSize:     c.Plan.AccountSize,
			MaxRiskPercent:  c.Plan.MaxRiskPercent,
			MinRiskReward:   c.Plan.MinRiskReward,
			AllowedPairs:    normalizePairs(c.Plan.AllowedPairs),
			AllowedSessions: c.Plan.AllowedSessions,
			DailyLossLimit:  c.Plan.DailyLossLimit,
			WeeklyLossLimit: c.Plan.WeeklyLossLimit,
		},
		Keywords: keywords,
		Weights: models.ScoringWeights{
			RiskTolerance:   c.Scoring.RiskTolerance,
			RiskExceeded:    c.Scoring.RiskExceeded,
			BelowMinRR:      c.Scoring.BelowMinRR,
			StopNotHonored:  c.Scoring.StopNotHonored,
			ProfitLeft:      c.Scoring.ProfitLeft,
			NegativeTag:     c.Scoring.NegativeTag,
			MostNegativeTag: c.Scoring.MostNegativeTag,
			MissingRules:    c.Scoring.MissingRules,
		},
		Strategies:         s.strategies(),
		CustomFields:       fields,
		Sessions:           s.sessions(),
		AnalysisCategories: s.categories(),
		Levels:             s.levels(),
		Achievements:       achievements,
		Location:           loc,
		DisplayCurrency:    strings.ToUpper(strings.TrimSpace(c.Display.Currency)),
		DisplayRate:        c.Display.Rate,
		Locale:             c.Display.Locale,
		TrashRetentionDays: c.Journal.TrashRetentionDays,
	}, nil
}

func (s SettingsFile) withDefaults() SettingsFile {
	def := DefaultSettingsFile()
	if len(s.Pairs) == 0 {
		s.Pairs = def.Pairs
	}
	if len(s.Keywords) == 0 {
		s.Keywords = def.Keywords
	}
	if len(s.Sessions) == 0 {
		s.Sessions = def.Sessions
	}
	if len(s.Levels) == 0 {
		s.Levels = def.Levels
	}
	if len(s.Achievements) == 0 {
		s.Achievements = def.Achievements
	}
	return s
}

func (s SettingsFile) pairs() (map[string]models.PairConfig, error) {
	symbols := make([]string, 0, len(s.Pairs))
	for symbol := range s.Pairs {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	pairs := make(map[string]models.PairConfig, len(s.Pairs))
	for _, symbol := range symbols {
		p := s.Pairs[symbol]
		cfg := models.PairConfig{PipSize: p.PipSize, PipValue: p.PipValue}
		if !cfg.Valid() {
			return nil, &apperrors.ConfigError{File: "settings.toml", Key: "pairs." + symbol, Message: "pip_size and pip_value must be positive"}
		}
		key := pairKey(symbol)
		if _, dup := pairs[key]; dup {
			return nil, &apperrors.ConfigError{File: "settings.toml", Key: "pairs." + symbol, Message: "duplicates pair " + key}
		}
		pairs[key] = cfg
	}
	return pairs, nil
}

func pairKey(symbol string) string {
	if strings.EqualFold(strings.TrimSpace(symbol), models.OtherPair) {
		return models.OtherPair
	}
	return models.NormalizePair(symbol)
}

func normalizePairs(symbols []string) []string {
	if len(symbols) == 0 {
		return nil
	}
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = models.NormalizePair(s)
	}
	return out
}

func (s SettingsFile) keywords() (models.KeywordEffects, error) {
	src := make(map[string]models.Impact, len(s.Keywords))
	for tag, name := range s.Keywords {
		impact, err := models.ParseImpact(name)
		if err != nil {
			return nil, &apperrors.ConfigError{File: "settings.toml", Key: "keywords." + tag, Message: err.Error()}
		}
		src[tag] = impact
	}
	return models.NewKeywordEffects(src), nil
}

func (s SettingsFile) fields() ([]models.FieldDefinition, error) {
	fields := make([]models.FieldDefinition, 0, len(s.CustomFields))
	for _, f := range s.CustomFields {
		control, err := models.NewFieldControl(fieldKind(f.Type), f.Options, f.Multiple, f.Min, f.Max)
		if err != nil {
			return nil, &apperrors.ConfigError{File: "settings.toml", Key: "custom_fields." + f.ID, Message: err.Error()}
		}
		name := f.Name
		if name == "" {
			name = f.ID
		}
		fields = append(fields, models.FieldDefinition{ID: fieldID(f.ID), Name: name, Control: control})
	}
	return fields, nil
}

// fieldKind accepts the type name in any case ("list", "Numeric").
func fieldKind(name string) models.FieldKind {
	for _, k := range []models.FieldKind{models.FieldList, models.FieldButton, models.FieldNumeric, models.FieldDate, models.FieldTime} {
		if strings.EqualFold(string(k), strings.TrimSpace(name)) {
			return k
		}
	}
	return models.FieldKind(name)
}

func fieldID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func (s SettingsFile) strategies() []models.Strategy {
	out := make([]models.Strategy, 0, len(s.Strategies))
	for _, st := range s.Strategies {
		strategy := models.Strategy{ID: st.ID, Name: st.Name, Rules: st.Rules}
		if strategy.Name == "" {
			strategy.Name = st.ID
		}
		for _, setup := range st.Setups {
			conds := make(map[string][]string, len(setup.Conditions))
			for id, opts := range setup.Conditions {
				conds[fieldID(id)] = opts
			}
			strategy.Setups = append(strategy.Setups, models.Setup{Name: setup.Name, Conditions: conds})
		}
		out = append(out, strategy)
	}
	return out
}

func (s SettingsFile) sessions() []models.Session {
	out := make([]models.Session, len(s.Sessions))
	for i, ss := range s.Sessions {
		out[i] = models.Session{Name: ss.Name, StartHour: ss.StartHour, EndHour: ss.EndHour}
	}
	return out
}

func (s SettingsFile) categories() []models.AnalysisCategory {
	out := make([]models.AnalysisCategory, 0, len(s.Categories))
	for _, c := range s.Categories {
		cat := models.AnalysisCategory{Name: c.Name, FieldID: fieldID(c.FieldID)}
		for _, sub := range c.SubCategories {
			cat.SubCategories = append(cat.SubCategories, models.SubCategory{Name: sub.Name, Options: sub.Options})
		}
		out = append(out, cat)
	}
	return out
}

func (s SettingsFile) levels() []models.Level {
	out := make([]models.Level, len(s.Levels))
	for i, l := range s.Levels {
		out[i] = models.Level{Name: l.Name, MinTrades: l.MinTrades, MinAvgScore: l.MinAvgScore}
	}
	return out
}

func (s SettingsFile) achievements() ([]models.AchievementDef, error) {
	out := make([]models.AchievementDef, 0, len(s.Achievements))
	for _, a := range s.Achievements {
		metric := models.AchievementMetric(strings.ToLower(strings.TrimSpace(a.Metric)))
		if !knownMetrics[metric] {
			return nil, &apperrors.ConfigError{File: "settings.toml", Key: "achievements." + a.Name, Message: fmt.Sprintf("unknown metric %q", a.Metric)}
		}
		out = append(out, models.AchievementDef{
			Name:        a.Name,
			Description: a.Description,
			Metric:      metric,
			Target:      a.Target,
			Badge:       a.Badge,
		})
	}
	return out, nil
}

// Validate checks settings.toml. Defaults are applied first, so only
// user-supplied tables can fail.
func (s SettingsFile) Validate() error {
	if len(s.Pairs) > 0 {
		hasOther := false
		for symbol := range s.Pairs {
			if pairKey(symbol) == models.OtherPair {
				hasOther = true
			}
		}
		if !hasOther {
			return &apperrors.ConfigError{File: "settings.toml", Key: "pairs", Message: "an \"other\" entry is required"}
		}
	}

	s = s.withDefaults()
	if _, err := s.pairs(); err != nil {
		return err
	}
	if _, err := s.keywords(); err != nil {
		return err
	}
	fields, err := s.fields()
	if err != nil {
		return err
	}
	if _, err := s.achievements(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.ID == "" {
			return &apperrors.ConfigError{File: "settings.toml", Key: "custom_fields", Message: "field id must not be empty"}
		}
		if seen[f.ID] {
			return &apperrors.ConfigError{File: "settings.toml", Key: "custom_fields." + f.ID, Message: "duplicate field id"}
		}
		seen[f.ID] = true
	}

	for _, ss := range s.Sessions {
		if ss.Name == "" || ss.StartHour < 0 || ss.StartHour > 23 || ss.EndHour < 0 || ss.EndHour > 24 {
			return &apperrors.ConfigError{File: "settings.toml", Key: "sessions." + ss.Name, Message: "hours must be within 0-24"}
		}
	}

	for _, st := range s.Strategies {
		if st.ID == "" {
			return &apperrors.ConfigError{File: "settings.toml", Key: "strategies", Message: "strategy id must not be empty"}
		}
		for _, setup := range st.Setups {
			if len(setup.Conditions) == 0 {
				return &apperrors.ConfigError{File: "settings.toml", Key: "strategies." + st.ID, Message: fmt.Sprintf("setup %q has no conditions", setup.Name)}
			}
			for id := range setup.Conditions {
				if !seen[fieldID(id)] {
					return &apperrors.ConfigError{File: "settings.toml", Key: "strategies." + st.ID, Message: fmt.Sprintf("setup %q references unknown field %q", setup.Name, id)}
				}
			}
		}
	}

	for _, c := range s.Categories {
		if !seen[fieldID(c.FieldID)] {
			return &apperrors.ConfigError{File: "settings.toml", Key: "categories." + c.Name, Message: fmt.Sprintf("unknown field %q", c.FieldID)}
		}
	}

	levels := s.levels()
	if !sort.SliceIsSorted(levels, func(i, j int) bool { return levels[i].MinTrades < levels[j].MinTrades }) {
		return &apperrors.ConfigError{File: "settings.toml", Key: "levels", Message: "levels must be ordered by min_trades"}
	}
	for i := 1; i < len(levels); i++ {
		if levels[i].MinAvgScore < levels[i-1].MinAvgScore {
			return &apperrors.ConfigError{File: "settings.toml", Key: "levels." + levels[i].Name, Message: "min_avg_score must not decrease"}
		}
	}

	return nil
}

// DefaultSettingsFile returns the vocabulary shipped with a new journal.
func DefaultSettingsFile() SettingsFile {
	s := SettingsFile{
		Pairs: map[string]PairEntry{
			"EURUSD":         {PipSize: 0.0001, PipValue: 10},
			"GBPUSD":         {PipSize: 0.0001, PipValue: 10},
			"AUDUSD":         {PipSize: 0.0001, PipValue: 10},
			"USDJPY":         {PipSize: 0.01, PipValue: 6.5},
			"XAUUSD":         {PipSize: 0.1, PipValue: 10},
			models.OtherPair: {PipSize: 0.0001, PipValue: 10},
		},
		Keywords: map[string]string{
			"disciplined": "Most Positive",
			"patient":     "Positive",
			"confident":   "Positive",
			"hesitant":    "Negative",
			"anxious":     "Negative",
			"fomo":        "Most Negative",
			"revenge":     "Most Negative",
		},
		Sessions: []SessionEntry{
			{Name: "Sydney", StartHour: 21, EndHour: 6},
			{Name: "Tokyo", StartHour: 0, EndHour: 9},
			{Name: "London", StartHour: 7, EndHour: 16},
			{Name: "New York", StartHour: 12, EndHour: 21},
		},
	}
	for _, l := range gamification.DefaultLevels() {
		s.Levels = append(s.Levels, LevelEntry{Name: l.Name, MinTrades: l.MinTrades, MinAvgScore: l.MinAvgScore})
	}
	for _, a := range gamification.DefaultAchievements() {
		s.Achievements = append(s.Achievements, AchievementEntry{
			Name:        a.Name,
			Description: a.Description,
			Metric:      string(a.Metric),
			Target:      a.Target,
			Badge:       a.Badge,
		})
	}
	return s
}
