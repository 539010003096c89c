package tablewire

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrMissingSecret is returned when no shared secret is provided.
	ErrMissingSecret = errors.New("shared secret is required")

	// ErrMissingStore is returned when no persistence store is provided.
	ErrMissingStore = errors.New("persistence store is required")

	// ErrUnencryptedPayload is returned when an envelope is missing the
	// encrypted flag. Rejected before any cryptographic work.
	ErrUnencryptedPayload = errors.New("payload is not encrypted")

	// ErrSignatureMismatch is returned when the envelope signature does not
	// match the recomputed value. Terminal only in strict mode; the default
	// protocol policy logs the mismatch and continues.
	ErrSignatureMismatch = errors.New("signature verification failed")

	// ErrDecryptionFailed is returned when key derivation, decryption, or
	// plaintext parsing fails.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrReplayDetected is returned when a payload's embedded issuance
	// timestamp is older than the acceptance window.
	ErrReplayDetected = errors.New("replay attack detected")

	// ErrValidationFailed is returned when a decrypted, fresh payload is
	// missing a mandatory field.
	ErrValidationFailed = errors.New("payload validation failed")

	// ErrPersistenceFailed is returned when every protocol check passed but
	// the downstream store rejected the write.
	ErrPersistenceFailed = errors.New("persistence failed")
)

// Code identifies one outcome of the closed ingestion error taxonomy.
// The values are wire-stable: cooperating encoders and the surrounding
// backend match on them byte for byte.
type Code string

// Ingestion error codes.
const (
	CodeUnencryptedPayload   Code = "UnencryptedPayload"
	CodeSignatureMismatch    Code = "SignatureMismatch"
	CodeDecryptionError      Code = "DecryptionError"
	CodeReplayAttackDetected Code = "ReplayAttackDetected"
	CodeValidationError      Code = "ValidationError"
	CodePersistenceError     Code = "PersistenceError"
)

// TablewireError is implemented by all errors returned by this package.
type TablewireError interface {
	error
	TablewireError() // marker method
}

// IngestError is the structured error returned for every failed ingestion.
// Code is the externally observable classification; Stage names the pipeline
// step that failed.
type IngestError struct {
	Code    Code
	Stage   string // "envelope", "signature", "decrypt", "payload", "freshness", "validate", "persist"
	Message string
	Err     error
}

func (e *IngestError) Error() string {
	msg := fmt.Sprintf("%s at %s", e.Code, e.Stage)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *IngestError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *IngestError) Is(target error) bool {
	switch e.Code {
	case CodeUnencryptedPayload:
		return target == ErrUnencryptedPayload
	case CodeSignatureMismatch:
		return target == ErrSignatureMismatch
	case CodeDecryptionError:
		return target == ErrDecryptionFailed
	case CodeReplayAttackDetected:
		return target == ErrReplayDetected
	case CodeValidationError:
		return target == ErrValidationFailed
	case CodePersistenceError:
		return target == ErrPersistenceFailed
	}
	return false
}

// TablewireError implements the TablewireError interface.
func (e *IngestError) TablewireError() {}

// ErrorCode extracts the taxonomy code from an error chain. It returns an
// empty Code for nil errors and errors that did not originate in this
// package, so callers can map outcomes without type assertions.
func ErrorCode(err error) Code {
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// ingestError constructs an IngestError.
func ingestError(code Code, stage, message string, err error) *IngestError {
	return &IngestError{Code: code, Stage: stage, Message: message, Err: err}
}
