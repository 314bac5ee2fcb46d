package models

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// FieldKind names a custom-field control type.
type FieldKind string

const (
	FieldList    FieldKind = "List"
	FieldButton  FieldKind = "Button"
	FieldNumeric FieldKind = "Numeric"
	FieldDate    FieldKind = "Date"
	FieldTime    FieldKind = "Time"
)

// FieldControl is the closed set of custom-field controls. Each variant
// carries only the payload relevant to it; callers type-switch over
// ListControl, ButtonControl, NumericControl, DateControl and TimeControl.
type FieldControl interface {
	Kind() FieldKind
	isFieldControl()
}

// ListControl is a dropdown of options.
type ListControl struct {
	Options  []string
	Multiple bool
}

// ButtonControl is a row of toggle buttons.
type ButtonControl struct {
	Options  []string
	Multiple bool
}

// NumericControl is a bounded number input. Max <= Min means unbounded.
type NumericControl struct {
	Min float64
	Max float64
}

// DateControl is a calendar date.
type DateControl struct{}

// TimeControl is a clock time (HH:MM).
type TimeControl struct{}

func (ListControl) Kind() FieldKind    { return FieldList }
func (ButtonControl) Kind() FieldKind  { return FieldButton }
func (NumericControl) Kind() FieldKind { return FieldNumeric }
func (DateControl) Kind() FieldKind    { return FieldDate }
func (TimeControl) Kind() FieldKind    { return FieldTime }

func (ListControl) isFieldControl()    {}
func (ButtonControl) isFieldControl()  {}
func (NumericControl) isFieldControl() {}
func (DateControl) isFieldControl()    {}
func (TimeControl) isFieldControl()    {}

// NewFieldControl builds the control variant for a kind.
func NewFieldControl(kind FieldKind, options []string, multiple bool, min, max float64) (FieldControl, error) {
	switch kind {
	case FieldList:
		return ListControl{Options: options, Multiple: multiple}, nil
	case FieldButton:
		return ButtonControl{Options: options, Multiple: multiple}, nil
	case FieldNumeric:
		return NumericControl{Min: min, Max: max}, nil
	case FieldDate:
		return DateControl{}, nil
	case FieldTime:
		return TimeControl{}, nil
	}
	return nil, fmt.Errorf("unknown custom field type %q", kind)
}

// FieldDefinition is a user-defined journal field.
type FieldDefinition struct {
	ID      string
	Name    string
	Control FieldControl
}

// FieldValue is the value a trade holds for a custom field. Only the part
// matching the field's control is meaningful.
type FieldValue struct {
	Options []string  `json:"options,omitempty"`
	Number  float64   `json:"number,omitempty"`
	Date    time.Time `json:"date,omitempty"`
	Clock   string    `json:"clock,omitempty"`
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Validate checks a value against the field's control.
func (d FieldDefinition) Validate(v FieldValue) error {
	switch c := d.Control.(type) {
	case ListControl:
		return validateOptions(d.Name, c.Options, c.Multiple, v.Options)
	case ButtonControl:
		return validateOptions(d.Name, c.Options, c.Multiple, v.Options)
	case NumericControl:
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			return fmt.Errorf("%s: value is not a finite number", d.Name)
		}
		if c.Max > c.Min && (v.Number < c.Min || v.Number > c.Max) {
			return fmt.Errorf("%s: %g outside [%g, %g]", d.Name, v.Number, c.Min, c.Max)
		}
		return nil
	case DateControl:
		if v.Date.IsZero() {
			return fmt.Errorf("%s: date is required", d.Name)
		}
		return nil
	case TimeControl:
		if !clockPattern.MatchString(v.Clock) {
			return fmt.Errorf("%s: %q is not HH:MM", d.Name, v.Clock)
		}
		return nil
	case nil:
		return fmt.Errorf("%s: field has no control", d.Name)
	default:
		return fmt.Errorf("%s: unsupported control %T", d.Name, c)
	}
}

// DateLayout is how date values are rendered as labels.
const DateLayout = "2006-01-02"

// Labels renders a value as the strings used for grouping and setup
// matching. Empty values yield no labels.
func (d FieldDefinition) Labels(v FieldValue) []string {
	switch d.Control.(type) {
	case ListControl, ButtonControl:
		return v.Options
	case NumericControl:
		return []string{strconv.FormatFloat(v.Number, 'f', -1, 64)}
	case DateControl:
		if v.Date.IsZero() {
			return nil
		}
		return []string{v.Date.Format(DateLayout)}
	case TimeControl:
		if v.Clock == "" {
			return nil
		}
		return []string{v.Clock}
	default:
		// Unknown or missing definition: fall back to whatever options were stored.
		return v.Options
	}
}

func validateOptions(name string, allowed []string, multiple bool, selected []string) error {
	if !multiple && len(selected) > 1 {
		return fmt.Errorf("%s: only one option may be selected", name)
	}
	for _, s := range selected {
		if !containsString(allowed, s) {
			return fmt.Errorf("%s: %q is not an option", name, s)
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
