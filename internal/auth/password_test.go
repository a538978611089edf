package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	t.Run("Hash and verify", func(t *testing.T) {
		hash, err := HashPassword("wipe-it-42")
		require.NoError(t, err)
		assert.NotEqual(t, "wipe-it-42", hash)

		assert.NoError(t, VerifyPassword("wipe-it-42", hash))
		assert.Error(t, VerifyPassword("Wipe-it-42", hash))
	})

	t.Run("Salted hashes differ", func(t *testing.T) {
		h1, err := HashPassword("password123")
		require.NoError(t, err)
		h2, err := HashPassword("password123")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("Uses configured cost", func(t *testing.T) {
		hash, err := HashPassword("password123")
		require.NoError(t, err)
		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, BcryptCost, cost)
	})

	t.Run("Invalid hash fails verification", func(t *testing.T) {
		assert.Error(t, VerifyPassword("password123", "not-a-hash"))
		assert.Error(t, VerifyPassword("password123", ""))
	})
}

func TestValidatePasswordStrength(t *testing.T) {
	valid := []string{"password1", "12345abc", "pässwört9", "with space 1"}
	for _, pw := range valid {
		assert.NoError(t, ValidatePasswordStrength(pw), pw)
	}

	invalid := []struct {
		password string
		message  string
	}{
		{"", "at least 8"},
		{"short1", "at least 8"},
		{"onlyletters", "number"},
		{"1234567890", "letter"},
		{strings.Repeat("a1", 40), "at most 72"},
	}
	for _, tc := range invalid {
		err := ValidatePasswordStrength(tc.password)
		require.Error(t, err, tc.password)
		assert.ErrorIs(t, err, ErrWeakPassword)
		assert.Contains(t, err.Error(), tc.message)
	}
}
