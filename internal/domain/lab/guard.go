package lab

import "time"

// versionConflict reports whether a caller-supplied expected version token
// disagrees with the stored record's current token. A nil expected token
// bypasses the guard: flows that never loaded a version get last-write-wins
// semantics instead of spurious conflicts.
func versionConflict(current time.Time, expected *time.Time) bool {
	return expected != nil && !expected.Equal(current)
}
