package session

import (
	"fmt"

	"sso-service/internal/utils"
)

// idBytes gives session ids 256 bits of entropy.
const idBytes = 32

// GenerateID generates a cryptographically secure session ID.
func GenerateID() (string, error) {
	id, err := utils.RandomString(idBytes)
	if err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}
	return id, nil
}
