package utils

import "github.com/google/uuid"

// GenerateID returns a fresh UUID string. Used for auction, bid, user,
// notification and audit identifiers.
func GenerateID() string {
	return uuid.New().String()
}
