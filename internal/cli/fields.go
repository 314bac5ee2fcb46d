package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// timeLayouts are the accepted --open/--close-time formats, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTime reads a timestamp in loc. "now" is accepted.
func parseTime(s string, loc *time.Location, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "now") {
		return now, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("time", s, "expected YYYY-MM-DD[ HH:MM[:SS]] or RFC3339")
}

// parseFieldFlags turns repeated "id=value" flags into custom field values.
// List and Button values are comma separated; repeating an ID adds options.
func parseFieldFlags(settings models.AppSettings, flags []string) (map[string]models.FieldValue, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	values := make(map[string]models.FieldValue, len(flags))
	for _, flag := range flags {
		id, raw, ok := strings.Cut(flag, "=")
		if !ok {
			return nil, apperrors.NewValidationError("field", flag, "expected id=value")
		}
		id = strings.ToLower(strings.TrimSpace(id))
		raw = strings.TrimSpace(raw)

		def, ok := settings.Field(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownField, id)
		}

		v := values[id]
		switch def.Control.(type) {
		case models.ListControl, models.ButtonControl:
			for _, opt := range strings.Split(raw, ",") {
				if opt = strings.TrimSpace(opt); opt != "" {
					v.Options = append(v.Options, opt)
				}
			}
		case models.NumericControl:
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, apperrors.NewValidationError("custom_fields."+id, raw, "is not a number")
			}
			v.Number = n
		case models.DateControl:
			d, err := time.ParseInLocation(models.DateLayout, raw, settings.Loc())
			if err != nil {
				return nil, apperrors.NewValidationError("custom_fields."+id, raw, "expected YYYY-MM-DD")
			}
			v.Date = d
		case models.TimeControl:
			v.Clock = raw
		}
		values[id] = v
	}
	return values, nil
}
