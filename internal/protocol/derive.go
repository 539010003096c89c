package protocol

import (
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// DeriveKey derives the AES-256 key for a single envelope.
//
// The derivation is PBKDF2 (RFC 8018) over the process-wide shared secret,
// salted by the envelope's per-message salt, with [KDFIterations] rounds of
// [KDFHash]. It is a pure function of (secret, salt): the same inputs always
// produce the same key, on both sides of the channel.
//
// The salt must be exactly [SaltSize] bytes as decoded from the wire.
func DeriveKey(secret string, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidSaltSize, len(salt), SaltSize)
	}
	return pbkdf2.Key([]byte(secret), salt, KDFIterations, KeySize, KDFHash), nil
}
