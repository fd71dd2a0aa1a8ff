package convert

import "fmt"

var byteUnits = [...]string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders a byte count with one decimal and a 1024-based unit,
// e.g. 200000 → "195.3KB". Non-positive counts render as "0B".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0B"
	}
	value := float64(n)
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%.1fB", value)
	}
	return fmt.Sprintf("%.1f%s", value, byteUnits[unit])
}

// savingsInfo builds the per-file success summary.
func savingsInfo(before, after int64) string {
	if before <= 0 || after <= 0 {
		return ""
	}
	savings := before - after
	pct := float64(savings) / float64(before) * 100
	return fmt.Sprintf("%s saved (%.1f%%)", FormatBytes(savings), pct)
}
