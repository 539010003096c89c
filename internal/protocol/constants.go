package protocol

import (
	"crypto/sha256"
	"hash"
	"time"
)

const (
	// KeySize is the size of a derived AES-256 key in bytes.
	KeySize = 32
	// SaltSize is the size of the per-message key-derivation salt in bytes.
	SaltSize = 16
	// IVSize is the size of the CBC initialization vector in bytes.
	IVSize = 16
	// SignatureSize is the size of an HMAC-SHA-256 envelope signature in bytes.
	SignatureSize = 32

	// KDFIterations is the PBKDF2 round count. It is a protocol constant
	// shared with every encoder; both sides must use the same value.
	KDFIterations = 1000

	// ReplayWindow is the maximum accepted age of an envelope's embedded
	// issuance timestamp. Older envelopes are rejected as replays.
	ReplayWindow = 300000 * time.Millisecond

	// Version is the protocol schema version carried in the _version field
	// of every payload. Advisory only; the decoder never branches on it.
	Version = "1.0"
)

// KDFHash is the digest underlying PBKDF2 key derivation.
// Protocol constant; change only in lockstep with the encoder.
var KDFHash func() hash.Hash = sha256.New

// MACHash is the digest underlying the HMAC envelope signature.
// Protocol constant; change only in lockstep with the encoder.
var MACHash func() hash.Hash = sha256.New

// Ciphersuite is the canonical string representation of the algorithm suite.
var Ciphersuite = "AES-256-CBC:PBKDF2-SHA-256:HMAC-SHA-256"
