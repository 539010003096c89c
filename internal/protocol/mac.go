package protocol

import "crypto/hmac"

// Sign computes the envelope signature: HMAC over the raw ciphertext bytes,
// keyed directly by the shared secret. The signature covers the ciphertext
// only; salt and metadata are unauthenticated by protocol design.
func Sign(secret string, ciphertext []byte) []byte {
	mac := hmac.New(MACHash, []byte(secret))
	mac.Write(ciphertext)
	return mac.Sum(nil)
}

// Verify reports whether sig is a valid signature over ciphertext.
// The comparison is constant time.
//
// Verify returns a bool rather than an error because a mismatch is not
// terminal under the current protocol policy; the ingestion layer owns
// that decision.
func Verify(secret string, ciphertext, sig []byte) bool {
	return hmac.Equal(Sign(secret, ciphertext), sig)
}
