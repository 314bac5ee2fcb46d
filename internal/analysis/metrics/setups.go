package metrics

import "trade-journal/internal/models"

// MatchSetups returns the names of the strategy's setups whose every
// condition is satisfied by the trade's custom field values. A setup with no
// conditions never matches.
func MatchSetups(t models.Trade, strategy *models.Strategy, fields []models.FieldDefinition) []string {
	if strategy == nil {
		return nil
	}
	var matched []string
	for _, setup := range strategy.Setups {
		if setupMatches(t, setup, fields) {
			matched = append(matched, setup.Name)
		}
	}
	return matched
}

func setupMatches(t models.Trade, setup models.Setup, fields []models.FieldDefinition) bool {
	if len(setup.Conditions) == 0 {
		return false
	}
	for id, wanted := range setup.Conditions {
		value, ok := t.CustomFields[id]
		if !ok {
			return false
		}
		if !anyIn(findField(fields, id).Labels(value), wanted) {
			return false
		}
	}
	return true
}

func findField(fields []models.FieldDefinition, id string) models.FieldDefinition {
	for _, f := range fields {
		if f.ID == id {
			return f
		}
	}
	return models.FieldDefinition{ID: id}
}

func anyIn(values, wanted []string) bool {
	for _, v := range values {
		for _, w := range wanted {
			if v == w {
				return true
			}
		}
	}
	return false
}
