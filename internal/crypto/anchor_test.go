package crypto

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var txIDPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

func TestSimulatedAnchorIDGenerator(t *testing.T) {
	gen := NewSimulatedAnchorIDGenerator()

	t.Run("Matches transaction hash format", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			id := gen.NewTransactionID()
			require.Regexp(t, txIDPattern, id)
		}
	})

	t.Run("Generates distinct ids", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 1000; i++ {
			seen[gen.NewTransactionID()] = struct{}{}
		}
		assert.Len(t, seen, 1000)
	})

	t.Run("Satisfies interface", func(t *testing.T) {
		var _ AnchorIDGenerator = gen
	})
}

func TestGenerateRandomKey(t *testing.T) {
	t.Run("Generate key successfully", func(t *testing.T) {
		key, err := GenerateRandomKey(32)
		require.NoError(t, err)
		assert.Len(t, key, 32)
	})

	t.Run("Generate unique keys", func(t *testing.T) {
		key1, err := GenerateRandomKey(32)
		require.NoError(t, err)
		key2, err := GenerateRandomKey(32)
		require.NoError(t, err)
		assert.NotEqual(t, key1, key2)
	})

	t.Run("Invalid size fails", func(t *testing.T) {
		_, err := GenerateRandomKey(0)
		assert.Error(t, err)
	})
}
