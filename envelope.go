package tablewire

import "encoding/json"

// Envelope is the wire-level container for one encrypted telemetry payload.
// Envelopes are ephemeral: constructed on ingress, consumed synchronously,
// and discarded once orchestration completes.
type Envelope struct {
	// Encrypted must be true. Envelopes without it are rejected before any
	// cryptographic work begins.
	Encrypted bool
	// Ciphertext is the hex-encoded encrypted payload. Encoders write it
	// under either the "encryptedData" or the "ciphertext" key; both are
	// accepted on input and "encryptedData" is written on output.
	Ciphertext string
	// Salt is the hex-encoded 16-byte key-derivation salt, unique per
	// message. It feeds key derivation only, never the cipher IV.
	Salt string
	// Signature is the hex-encoded 32-byte keyed hash over the ciphertext
	// bytes. Optional; its absence skips verification entirely.
	Signature string
}

// wireEnvelope is the JSON shape of an envelope. Input carries the
// ciphertext under one of two keys depending on the encoder generation.
type wireEnvelope struct {
	Encrypted     bool   `json:"encrypted"`
	EncryptedData string `json:"encryptedData,omitempty"`
	Ciphertext    string `json:"ciphertext,omitempty"`
	Salt          string `json:"salt,omitempty"`
	Signature     string `json:"signature,omitempty"`
}

// ParseEnvelope parses JSON-shaped input into an Envelope.
//
// Unparseable input and envelopes whose encrypted flag is absent or false
// are rejected with CodeUnencryptedPayload before any cryptographic work:
// the mandatory flag cannot be confirmed, so the payload is treated as
// unencrypted. This is the cheap rejection path.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ingestError(CodeUnencryptedPayload, "envelope", "", err)
	}
	if !env.Encrypted {
		return nil, ingestError(CodeUnencryptedPayload, "envelope", "encrypted flag is absent or false", nil)
	}
	return &env, nil
}

// UnmarshalJSON implements json.Unmarshaler. The "encryptedData" key wins
// when both ciphertext keys are present.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	e.Encrypted = w.Encrypted
	e.Salt = w.Salt
	e.Signature = w.Signature
	e.Ciphertext = w.EncryptedData
	if e.Ciphertext == "" {
		e.Ciphertext = w.Ciphertext
	}
	return nil
}

// MarshalJSON implements json.Marshaler, writing the ciphertext under the
// "encryptedData" key the way current encoders do.
func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEnvelope{
		Encrypted:     e.Encrypted,
		EncryptedData: e.Ciphertext,
		Salt:          e.Salt,
		Signature:     e.Signature,
	})
}
