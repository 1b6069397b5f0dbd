// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency formats a rupee amount with thousands separators.
// e.g., 50000 -> "₹50,000", 1234.5 -> "₹1,234.50"
func FormatCurrency(v float64) string {
	if v < 0 {
		return "-" + FormatCurrency(-v)
	}
	if v == math.Trunc(v) {
		return printer.Sprintf("₹%d", int64(v))
	}
	return printer.Sprintf("₹%.2f", v)
}

// FormatCompact formats an amount with K/L/Cr suffixes for narrow cells.
// e.g., 1234 -> "₹1.2K", 250000 -> "₹2.5L", 12000000 -> "₹1.2Cr"
func FormatCompact(v float64) string {
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}

	switch {
	case abs >= 10_000_000:
		return fmt.Sprintf("%s₹%.1fCr", sign, abs/10_000_000)
	case abs >= 100_000:
		return fmt.Sprintf("%s₹%.1fL", sign, abs/100_000)
	case abs >= 1_000:
		return fmt.Sprintf("%s₹%.1fK", sign, abs/1_000)
	default:
		return fmt.Sprintf("%s₹%.0f", sign, abs)
	}
}

// FormatUptime formats an elapsed time to its two largest units.
// e.g., 50h -> "2d 2h", 62m -> "1h 2m", 45s -> "45s"
func FormatUptime(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d <= 0 {
		return "0s"
	}

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	mins := d / time.Minute

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	case mins > 0:
		return fmt.Sprintf("%dm", mins)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDelta formats an amount change with an explicit sign. A zero change
// is "±₹0".
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta == 0 {
		return "±₹0"
	}
	if delta > 0 {
		return "+" + FormatCurrency(delta)
	}
	return "-" + FormatCurrency(-delta)
}

// FormatYesNo renders a model boolean.
func FormatYesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
