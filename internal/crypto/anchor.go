// Package crypto provides the identifier and key generation used by GreenWipe.
// It includes the anchor transaction id generator, which is simulated and
// intentionally not cryptographic, and random key material for JWT signing.
package crypto

import (
	"encoding/hex"
	"math/rand/v2"
)

// AnchorIDGenerator produces ledger transaction ids for anchored certificates.
// A real ledger client can replace the simulated implementation without
// changing callers.
type AnchorIDGenerator interface {
	NewTransactionID() string
}

// SimulatedAnchorIDGenerator returns "0x" followed by 64 lowercase hex characters
// drawn from math/rand. The ids look like chain transaction hashes but are not.
type SimulatedAnchorIDGenerator struct{}

// NewSimulatedAnchorIDGenerator creates the default generator
func NewSimulatedAnchorIDGenerator() *SimulatedAnchorIDGenerator {
	return &SimulatedAnchorIDGenerator{}
}

// NewTransactionID returns a fresh simulated transaction id
func (g *SimulatedAnchorIDGenerator) NewTransactionID() string {
	var buf [32]byte
	for i := 0; i < len(buf); i += 8 {
		v := rand.Uint64()
		for j := 0; j < 8; j++ {
			buf[i+j] = byte(v >> (8 * j))
		}
	}
	return "0x" + hex.EncodeToString(buf[:])
}
