package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SessionIDLength is the length of generated session identifiers.
const SessionIDLength = 43

// sessionIDChars is the URL- and cookie-safe alphabet for session identifiers.
const sessionIDChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// GenerateSessionID returns a random, cookie-safe session identifier.
func GenerateSessionID() (string, error) {
	return generateRandomString(SessionIDLength, sessionIDChars)
}

// ComputeSHA256 returns the hex-encoded SHA-256 of data.
func ComputeSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// generateRandomString generates a random string of the specified length
// using characters from the provided character set.
// The charset length must divide 256 so that every character is equally likely.
func generateRandomString(length int, charset string) (string, error) {
	result := make([]byte, length)
	charsetLen := len(charset)

	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	for i := 0; i < length; i++ {
		result[i] = charset[int(randomBytes[i])%charsetLen]
	}

	return string(result), nil
}
