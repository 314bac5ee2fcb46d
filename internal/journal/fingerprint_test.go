package journal

import (
	"testing"

	"trade-journal/internal/models"
)

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint(testSettings())
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Fingerprint(testSettings())
	if a != b {
		t.Fatalf("same settings gave %s and %s", a, b)
	}

	changes := map[string]func(*models.AppSettings){
		"pip value": func(s *models.AppSettings) { s.Pairs["EURUSD"] = models.PairConfig{PipSize: 0.0001, PipValue: 1} },
		"plan":      func(s *models.AppSettings) { s.Plan.MaxRiskPercent = 2 },
		"weights":   func(s *models.AppSettings) { s.Weights.MissingRules = 0 },
		"keyword":   func(s *models.AppSettings) { s.Keywords["calm"] = models.ImpactPositive },
		"rule":      func(s *models.AppSettings) { s.Strategies[0].Rules = append(s.Strategies[0].Rules, "Journal it") },
		"field kind": func(s *models.AppSettings) {
			s.CustomFields[0].Control = models.ListControl{Options: []string{"A", "B"}}
		},
	}
	for name, change := range changes {
		s := testSettings()
		change(&s)
		got, err := Fingerprint(s)
		if err != nil {
			t.Fatal(err)
		}
		if got == a {
			t.Errorf("%s: fingerprint unchanged", name)
		}
	}

	// Display-only settings do not affect derived fields.
	s := testSettings()
	s.DisplayCurrency = "EUR"
	s.TrashRetentionDays = 7
	if got, _ := Fingerprint(s); got != a {
		t.Error("display settings changed the fingerprint")
	}
}
