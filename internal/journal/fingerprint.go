package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"trade-journal/internal/models"
)

type fieldView struct {
	ID      string
	Name    string
	Kind    models.FieldKind
	Control models.FieldControl
}

// Fingerprint hashes everything in the settings that affects derived trade
// fields. Equal settings give equal fingerprints.
func Fingerprint(settings models.AppSettings) (string, error) {
	fields := make([]fieldView, len(settings.CustomFields))
	for i, f := range settings.CustomFields {
		fields[i] = fieldView{ID: f.ID, Name: f.Name, Control: f.Control}
		if f.Control != nil {
			fields[i].Kind = f.Control.Kind()
		}
	}

	view := struct {
		Pairs      map[string]models.PairConfig
		Plan       models.TradingPlan
		Keywords   models.KeywordEffects
		Weights    models.ScoringWeights
		Strategies []models.Strategy
		Fields     []fieldView
	}{
		Pairs:      settings.Pairs,
		Plan:       settings.Plan,
		Keywords:   settings.Keywords,
		Weights:    settings.Weights,
		Strategies: settings.Strategies,
		Fields:     fields,
	}

	data, err := json.Marshal(view)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
