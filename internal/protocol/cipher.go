package protocol

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// IVFromSeed builds the static CBC initialization vector from a fixed
// configuration seed string. The seed bytes are truncated to [IVSize] bytes,
// or zero-padded on the right when shorter.
//
// The IV is not transmitted per message and is reused for every envelope
// sharing the seed. This is a documented protocol trade-off: wire size over
// IV freshness. Encryption strength rests on salt uniqueness driving key
// uniqueness (see the package documentation).
func IVFromSeed(seed string) []byte {
	iv := make([]byte, IVSize)
	copy(iv, seed)
	return iv
}

// Encrypt encrypts plaintext using AES-256-CBC with PKCS#7 padding.
func Encrypt(key, iv, plaintext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), KeySize)
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidIVSize, len(iv), IVSize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	padded := pad(plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// Decrypt decrypts AES-256-CBC ciphertext and strips PKCS#7 padding.
//
// Any failure (bad length, bad padding, wrong key) surfaces as
// [ErrDecryptionFailed]; cipher internals never leak to callers.
func Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), KeySize)
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidIVSize, len(iv), IVSize)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d", ErrDecryptionFailed, len(ciphertext))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return unpad(plaintext)
}

// pad applies PKCS#7 padding. The result is always a non-empty multiple of
// the block size; a block-aligned input gains a full padding block.
func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// unpad validates and strips PKCS#7 padding.
func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, ErrDecryptionFailed
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, ErrDecryptionFailed
	}
	for _, b := range data[len(data)-n:] {
		if b != byte(n) {
			return nil, ErrDecryptionFailed
		}
	}
	return data[:len(data)-n], nil
}
