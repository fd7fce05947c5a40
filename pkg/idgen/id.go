// Package idgen generates identifiers for audit entries.
package idgen

import "github.com/oklog/ulid/v2"

// SortableID returns a new ULID: 26 characters, lexicographically
// ordered by creation time. Audit entries keyed by these IDs sort
// chronologically without a separate sequence column.
func SortableID() string {
	return ulid.Make().String()
}
