package tablewire

import (
	"encoding/json"
	"time"
)

// Internal protocol fields injected by encoders and stripped before any
// payload leaves this package.
const (
	timestampField = "_timestamp"
	versionField   = "_version"
)

// SignatureStatus describes the outcome of envelope signature verification.
type SignatureStatus string

const (
	// SignatureVerified means the envelope carried a signature and it
	// matched the recomputed value.
	SignatureVerified SignatureStatus = "verified"
	// SignatureAbsent means the envelope carried no signature, so
	// verification was skipped.
	SignatureAbsent SignatureStatus = "absent"
	// SignatureInvalid means the envelope carried a signature that did not
	// match. Under the default protocol policy this is logged and flagged
	// but does not stop processing.
	SignatureInvalid SignatureStatus = "invalid"
)

// Payload is a decrypted, validated telemetry payload with the internal
// protocol fields already stripped. The business fields are opaque to this
// package: they are neither interpreted nor mutated beyond stripping.
type Payload struct {
	// ID is the mandatory business identifier drawn from the plaintext.
	ID string
	// Fields holds the business fields exactly as decoded, minus the
	// internal protocol fields.
	Fields map[string]any
	// IssuedAt is the encoder-side creation time carried in _timestamp.
	IssuedAt time.Time
	// Version is the advisory protocol version carried in _version.
	// The decoder never branches on it.
	Version string
	// SignatureStatus records the envelope signature outcome.
	SignatureStatus SignatureStatus
}

// parsePayload decodes decrypted plaintext into its field map. Plaintext
// that is not a JSON object after a successful decrypt is evidence that the
// key or derivation mismatched even though the padding happened to validate,
// so it classifies as a decryption failure.
func parsePayload(plaintext []byte) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(plaintext, &fields); err != nil {
		return nil, ingestError(CodeDecryptionError, "payload", "", err)
	}
	if fields == nil {
		return nil, ingestError(CodeDecryptionError, "payload", "plaintext is not a JSON object", nil)
	}
	return fields, nil
}

// issuedAt extracts the mandatory _timestamp field, integer milliseconds
// since epoch. Missing or non-numeric timestamps are a validation failure:
// without one the freshness guard has nothing to check.
func issuedAt(fields map[string]any) (time.Time, error) {
	raw, ok := fields[timestampField]
	if !ok {
		return time.Time{}, ingestError(CodeValidationError, "freshness", "payload is missing "+timestampField, nil)
	}
	ms, ok := raw.(float64)
	if !ok {
		return time.Time{}, ingestError(CodeValidationError, "freshness", timestampField+" is not numeric", nil)
	}
	return time.UnixMilli(int64(ms)), nil
}

// checkFreshness enforces the bounded acceptance window on the embedded
// issuance timestamp. Future timestamps (clock skew between encoder and
// decoder) clamp to zero age and are accepted; only age beyond the window
// rejects, matching the encoder side's expectations.
func checkFreshness(issued, now time.Time, window time.Duration) error {
	age := now.Sub(issued)
	if age < 0 {
		age = 0
	}
	if age > window {
		return ingestError(CodeReplayAttackDetected, "freshness",
			"payload issued "+age.String()+" ago exceeds the "+window.String()+" acceptance window", nil)
	}
	return nil
}

// stripInternal removes the protocol fields from the decoded payload and
// returns the advisory version string, empty when the payload carried none.
// The input map is not modified.
func stripInternal(fields map[string]any) (map[string]any, string) {
	var version string
	if v, ok := fields[versionField].(string); ok {
		version = v
	}

	clean := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == timestampField || k == versionField {
			continue
		}
		clean[k] = v
	}
	return clean, version
}
