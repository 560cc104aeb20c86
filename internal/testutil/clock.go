package testutil

import (
	"fmt"
	"time"
)

// FixedClock always returns the same instant. Use in tests that assert on
// timestamps.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time { return c.Time }

// SequenceIDs generates deterministic ids: "id-1", "id-2", ...
// Not safe for concurrent use; tests that need concurrency should use the
// real UUID generator.
type SequenceIDs struct {
	n int
}

func (g *SequenceIDs) New() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}
