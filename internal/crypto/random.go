package crypto

import (
	"crypto/rand"
	"fmt"
)

// GenerateRandomKey returns size bytes from crypto/rand
func GenerateRandomKey(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid key size: %d", size)
	}

	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}
	return key, nil
}
