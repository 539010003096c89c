package protocol

import "errors"

var (
	// ErrInvalidKeySize is returned when the AES key size is invalid.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidIVSize is returned when the initialization vector size is invalid.
	ErrInvalidIVSize = errors.New("invalid IV size")

	// ErrInvalidSaltSize is returned when the key-derivation salt size is invalid.
	ErrInvalidSaltSize = errors.New("invalid salt size")

	// ErrDecryptionFailed is returned when decryption fails. It deliberately
	// carries no detail about which cipher stage failed.
	ErrDecryptionFailed = errors.New("decryption failed")
)
