package protocol

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func TestDeriveKey_KnownVectors(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		saltHex string
		wantHex string
	}{
		{
			name:    "test-secret with zero salt",
			secret:  "test-secret",
			saltHex: "00000000000000000000000000000000",
			wantHex: "c3219e85ea401fe23f304dabf172ca59a95402dce2d087f8ca259f4c4a5addd0",
		},
		{
			name:    "another-secret with descending salt",
			secret:  "another-secret",
			saltHex: "f0e1d2c3b4a5968778695a4b3c2d1e0f",
			wantHex: "4194cdbb0e5574c13b8bc9ecd60987910dc58f5b31be3ab5d9ae569dd29ef857",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			salt, err := hex.DecodeString(tt.saltHex)
			if err != nil {
				t.Fatal(err)
			}

			key, err := DeriveKey(tt.secret, salt)
			if err != nil {
				t.Fatalf("DeriveKey() error = %v", err)
			}
			if got := hex.EncodeToString(key); got != tt.wantHex {
				t.Errorf("DeriveKey() = %s, want %s", got, tt.wantHex)
			}
		})
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{0xAB}, SaltSize)

	k1, err := DeriveKey("secret", salt)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	k2, err := DeriveKey("secret", salt)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}

	if !bytes.Equal(k1, k2) {
		t.Error("same inputs produced different keys")
	}
	if len(k1) != KeySize {
		t.Errorf("key length = %d, want %d", len(k1), KeySize)
	}
}

func TestDeriveKey_DistinctInputsDistinctKeys(t *testing.T) {
	saltA := bytes.Repeat([]byte{0x01}, SaltSize)
	saltB := bytes.Repeat([]byte{0x02}, SaltSize)

	kA, err := DeriveKey("secret", saltA)
	if err != nil {
		t.Fatal(err)
	}
	kB, err := DeriveKey("secret", saltB)
	if err != nil {
		t.Fatal(err)
	}
	kC, err := DeriveKey("other-secret", saltA)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(kA, kB) {
		t.Error("different salts produced the same key")
	}
	if bytes.Equal(kA, kC) {
		t.Error("different secrets produced the same key")
	}
}

func TestDeriveKey_InvalidSaltSize(t *testing.T) {
	tests := []struct {
		name     string
		saltSize int
	}{
		{"empty", 0},
		{"too short", 15},
		{"too long", 17},
		{"double", 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveKey("secret", make([]byte, tt.saltSize))
			if !errors.Is(err, ErrInvalidSaltSize) {
				t.Errorf("expected ErrInvalidSaltSize, got %v", err)
			}
		})
	}
}

func BenchmarkDeriveKey(b *testing.B) {
	salt := make([]byte, SaltSize)
	for i := 0; i < b.N; i++ {
		if _, err := DeriveKey("bench-secret", salt); err != nil {
			b.Fatal(err)
		}
	}
}
