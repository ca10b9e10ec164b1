// Package idgen generates identifiers and timestamps for domain records.
// Both are package variables so tests can pin them.
package idgen

import (
	"time"

	"github.com/google/uuid"
)

// NewFunc returns a new random identifier
var NewFunc = func() string {
	return uuid.New().String()
}

// NowFunc returns the current time in UTC
var NowFunc = func() time.Time {
	return time.Now().UTC()
}

// New returns a new identifier using NewFunc
func New() string {
	return NewFunc()
}

// Now returns the current time using NowFunc
func Now() time.Time {
	return NowFunc()
}
