// package formatter provides display formatting for listen and follower counts
package formatter

import (
	"fmt"
	"strconv"
)

// FormatCount abbreviates a count for display.
//
// Values of at least one million render as "1.2M", values of at least one
// thousand render as "1.5K", and smaller values render as the bare integer.
// The browser page relies on this exact shape for both listen and follower
// labels, so the rule must stay consistent across call sites.
func FormatCount(count int) string {
	switch {
	case count >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(count)/1_000_000)
	case count >= 1_000:
		return fmt.Sprintf("%.1fK", float64(count)/1_000)
	default:
		return strconv.Itoa(count)
	}
}

// ListenLabel renders a total listen count as the UI's popularity label.
func ListenLabel(count int) string {
	return fmt.Sprintf("%s listens", FormatCount(count))
}

// FollowerLabel renders a total listener count as the UI's followers label.
func FollowerLabel(count int) string {
	return fmt.Sprintf("%s users", FormatCount(count))
}

// SimilarToLabel renders the seed-artist attribution shown on a candidate card.
func SimilarToLabel(name string) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf("Similar to %s", name)
}
