package credentials

import (
	"errors"
	"fmt"

	"sso-service/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

const (
	HashVersionBcrypt = "bcrypt"

	// placeholderSuffix adds the upper-case, digit and symbol classes the
	// local password policy demands on top of the random part.
	placeholderSuffix = "P!1"
	placeholderBytes  = 24
)

// PlaceholderHash returns the hash of a random password that satisfies the
// local policy. The password is discarded: SSO accounts never log in with
// it, so the hash is a write-only compliance field.
func PlaceholderHash(cost int) (hash string, version string, err error) {
	random, err := utils.RandomString(placeholderBytes)
	if err != nil {
		return "", "", fmt.Errorf("credentials: placeholder: %w", err)
	}

	return HashPassword(random+placeholderSuffix, cost)
}

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string, cost int) (hash string, version string, err error) {
	if len(password) < 8 {
		return "", "", errors.New("password too short")
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", "", err
	}

	return string(bytes), HashVersionBcrypt, nil
}
