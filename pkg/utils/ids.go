// Package utils holds small helpers shared by the services: identifiers and
// password hashing.
package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a random UUID string. Users, rides and vehicles all use
// it, and both storage backends keep ids as opaque text.
//
// Go Learning Note — "github.com/google/uuid":
// uuid.New() panics only if the system's random source fails, which is
// treated as unrecoverable. uuid.NewString() is the same call returning a
// string directly.
func GenerateID() string {
	return uuid.NewString()
}
