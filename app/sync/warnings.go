package sync

import (
	"fmt"
	"strings"
)

const maxReportedWarnings = 3

// summarizeWarnings renders per-record and per-asset warnings into a bounded
// human-readable summary: the first few verbatim, the rest as a count.
func summarizeWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}

	reported := warnings
	if len(reported) > maxReportedWarnings {
		reported = reported[:maxReportedWarnings]
	}

	summary := strings.Join(reported, "; ")
	if extra := len(warnings) - len(reported); extra > 0 {
		summary = fmt.Sprintf("%s; and %d more", summary, extra)
	}
	return summary
}
