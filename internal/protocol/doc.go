// Package protocol implements the cryptographic primitives of the Tablewire
// secure telemetry ingestion protocol. It provides symmetric envelope
// encryption, per-message key derivation, and keyed integrity signatures
// with parameters that must match the cooperating encoders bit for bit.
//
// # Algorithm Suite
//
// The protocol uses the following algorithms:
//
//   - AES-256-CBC with PKCS#7 padding: symmetric encryption of the telemetry
//     payload. The initialization vector is NOT transmitted per message; it is
//     derived from a fixed configuration seed (see [IVFromSeed]).
//
//   - PBKDF2-HMAC-SHA-256 (RFC 8018): derives the per-message AES key from
//     the process-wide shared secret and the envelope's 16-byte salt, using
//     exactly [KDFIterations] rounds.
//
//   - HMAC-SHA-256 (RFC 2104): keyed signature over the raw ciphertext bytes,
//     keyed directly by the shared secret. Compared in constant time.
//
// # Protocol Constants
//
// Every parameter in this package is shared with the encoder side of the
// channel. Changing the iteration count, digest, key length, or IV
// construction silently breaks interoperability: envelopes still decrypt to
// bytes, just not the right ones. Change a constant only in lockstep with
// every deployed encoder.
//
// # Security Model
//
// The static IV is a deliberate protocol simplification that trades CBC's
// usual per-message IV for a smaller wire envelope. Confidentiality therefore
// rests entirely on key uniqueness: encoders MUST use a fresh random salt for
// every envelope so that PBKDF2 yields a distinct key each time. The decoder
// has no way to detect salt reuse.
//
// Signatures authenticate the ciphertext but, by protocol policy, a mismatch
// is reported to the caller rather than enforced here. [Verify] returns a
// bool; the ingestion layer decides whether a mismatch is terminal.
package protocol
