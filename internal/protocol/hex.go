package protocol

import (
	"encoding/hex"
	"strings"
)

// ToHex encodes bytes to lowercase hex, the wire encoding for all
// envelope fields.
func ToHex(data []byte) string {
	return hex.EncodeToString(data)
}

// FromHex decodes a hex string to bytes. Upper and lower case are both
// accepted; encoders differ.
func FromHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimSpace(s))
}
