package token

import "github.com/google/uuid"

// GenerateID returns a random (version 4) UUID string. uuid reads from
// crypto/rand, so identifiers are unguessable when used as check-in tokens.
func GenerateID() string {
	return uuid.NewString()
}

// IsID reports whether s has the shape of an identifier produced by GenerateID.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
