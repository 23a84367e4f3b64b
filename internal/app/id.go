package app

import "github.com/google/uuid"

// generateID produces a random identifier for sessions and wizards.
func generateID() string {
	return uuid.NewString()
}
