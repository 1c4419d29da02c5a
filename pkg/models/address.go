package models

import (
	"crypto/sha512"
	"encoding/base32"
	"errors"
)

// Address is a 32-byte Algorand public key. The zero Address is the
// all-zero address substituted for an absent receiver (spec.md §4.1).
type Address [32]byte

// ZeroAddress is the all-zero address.
var ZeroAddress Address

var b32Encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// String renders the address in Algorand's standard form: the 32-byte
// public key concatenated with a 4-byte SHA-512/256 checksum, base32
// encoded without padding.
func (a Address) String() string {
	checksum := sha512.Sum512_256(a[:])
	withChecksum := append(append([]byte{}, a[:]...), checksum[28:]...)
	return b32Encoding.EncodeToString(withChecksum)
}

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// DecodeAddress parses an Algorand address string back into its raw form,
// validating the embedded checksum.
func DecodeAddress(s string) (Address, error) {
	var addr Address
	decoded, err := b32Encoding.DecodeString(s)
	if err != nil {
		return addr, err
	}
	if len(decoded) != 36 {
		return addr, errors.New("models: decoded address has wrong length")
	}
	copy(addr[:], decoded[:32])
	checksum := sha512.Sum512_256(addr[:])
	if string(checksum[28:]) != string(decoded[32:]) {
		return addr, errors.New("models: address checksum mismatch")
	}
	return addr, nil
}
