package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// durationRegex matches the compact ban duration token, e.g. 10m, 12h, 7d
var durationRegex = regexp.MustCompile(`^(\d+)([mhd])$`)

// ParseDurationToken converts a compact duration token into seconds.
// Returns an error for anything outside <integer><m|h|d> with a positive
// integer.
func ParseDurationToken(value string) (int, error) {
	matches := durationRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(value)))
	if matches == nil {
		return 0, fmt.Errorf("invalid duration token: %q", value)
	}

	amount, err := strconv.Atoi(matches[1])
	if err != nil || amount <= 0 {
		return 0, fmt.Errorf("invalid duration amount: %q", value)
	}

	switch matches[2] {
	case "m":
		return amount * 60, nil
	case "h":
		return amount * 60 * 60, nil
	case "d":
		return amount * 60 * 60 * 24, nil
	}
	return 0, fmt.Errorf("invalid duration unit: %q", value)
}

// FormatDurationToken renders seconds as the largest exact compact unit
func FormatDurationToken(seconds int) string {
	switch {
	case seconds%86400 == 0:
		return fmt.Sprintf("%dd", seconds/86400)
	case seconds%3600 == 0:
		return fmt.Sprintf("%dh", seconds/3600)
	case seconds%60 == 0:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
