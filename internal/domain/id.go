package domain

import (
	"time"

	"github.com/google/uuid"
)

// NewID generates a UUIDv7 string for application-owned records.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewOperationID builds a time-derived bulk run identifier with a short
// random suffix, e.g. bulk_clone_20260115_093045_1a2b3c. The suffix keeps
// IDs unique when two runs start within the same second.
func NewOperationID(prefix string, now time.Time) string {
	return prefix + "_" + now.Format("20060102_150405") + "_" + uuid.NewString()[:6]
}
