package cli

import (
	"fmt"
	"strings"
	"time"
)

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatPips formats a pip count with sign and one decimal.
func FormatPips(pips float64) string {
	sign := ""
	if pips > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.1f", sign, pips)
}

// FormatR formats an R-multiple, e.g. "+1.50R".
func FormatR(r float64) string {
	sign := ""
	if r > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2fR", sign, r)
}

// FormatRiskReward formats a planned reward-to-risk ratio.
func FormatRiskReward(rr float64) string {
	if rr <= 0 {
		return "-"
	}
	return fmt.Sprintf("1:%.2f", rr)
}

// FormatPrice formats a quote with enough decimals for FX and metals.
func FormatPrice(price float64) string {
	if price <= 0 {
		return "-"
	}
	if price >= 100 {
		return fmt.Sprintf("%.3f", price)
	}
	return fmt.Sprintf("%.5f", price)
}

// FormatDateTime formats a time in the given timezone. Zero times render
// as "-".
func FormatDateTime(t time.Time, loc *time.Location, layout string) string {
	if t.IsZero() {
		return "-"
	}
	if loc == nil {
		loc = time.UTC
	}
	if layout == "" {
		layout = "2006-01-02 15:04"
	}
	return t.In(loc).Format(layout)
}

// TruncateString truncates a string to max runes with an ellipsis.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// JoinOrDash joins values with ", " or returns "-" when empty.
func JoinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
