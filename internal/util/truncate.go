package util

import "fmt"

// DefaultErrMaxLen caps the error text recorded on a failed lead (1KB) so a
// large remote response body cannot bloat the leads table.
const DefaultErrMaxLen = 1024

// TruncateErr truncates long error/diagnostic strings before they are stored
// or logged, keeping a byte-count marker so nothing disappears silently.
func TruncateErr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}
