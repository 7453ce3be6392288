// Package system provides the wall clock used to stamp registry entries and
// commit messages.
package system

import (
	"time"

	"github.com/JakeFAU/page-archiver/internal/archive"
)

// Clock implements archive.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC, truncated to whole seconds so that
// registry timestamps survive an RFC 3339 round trip unchanged.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

var _ archive.Clock = Clock{}
