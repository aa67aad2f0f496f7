package store

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// IDFunc returns a new unique goal id.
type IDFunc func() string

// NewID returns a ULID. ulid.Make is monotonic within the process, so ids
// sort in creation order even when created in the same millisecond.
func NewID() string {
	return ulid.Make().String()
}

// Clock returns the current time.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}
