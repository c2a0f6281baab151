// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

// Package common defines the small set of wire-level value types shared
// across the electoral engine: content hashes, validator identities and
// the hex encoding helpers used to print and parse them.
package common

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const (
	// HashLength is the expected length of a content hash in bytes.
	HashLength = 32
	// AddressLength is the expected length of a validator/authority
	// identity in bytes (sized for EVM-style 20-byte addresses; chains
	// with shorter identities left-pad, longer ones are truncated by
	// the chain-specific adapter before reaching this type).
	AddressLength = 20
)

// Hash represents a content-addressed 32-byte identifier: a vote's
// value hash, a shared-data table key, or a block hash.
type Hash [HashLength]byte

// BytesToHash sets the hash to the value of b, left-padding or
// truncating from the left as needed.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash parses s as a hex string and returns the resulting hash.
func HexToHash(s string) Hash { return BytesToHash(FromHex(s)) }

// SetBytes sets the hash to the value of b, left-padding or truncating
// from the left as needed.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// Bytes returns the raw byte representation of h.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns a "0x"-prefixed hex string representation of h.
func (h Hash) Hex() string { return encodeHex(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// Big converts h to a big.Int.
func (h Hash) Big() *big.Int { return new(big.Int).SetBytes(h[:]) }

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(input []byte) error {
	h.SetBytes(FromHex(string(input)))
	return nil
}

// Address identifies a validating authority: the on-chain account that
// casts votes and, for the threshold-signing engine, holds a key share.
type Address [AddressLength]byte

// BytesToAddress sets the address to the value of b, left-padding or
// truncating from the left as needed.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress parses s as a hex string and returns the resulting address.
func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

// BigToAddress returns Address with byte values of b. If b is longer
// than AddressLength bytes, b will be cropped from the left.
func BigToAddress(b *big.Int) Address { return BytesToAddress(b.Bytes()) }

// SetBytes sets the address to the value of b, left-padding or
// truncating from the left as needed.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// Bytes returns the raw byte representation of a.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns a "0x"-prefixed hex string representation of a.
func (a Address) Hex() string { return encodeHex(a[:]) }

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(input []byte) error {
	a.SetBytes(FromHex(string(input)))
	return nil
}

func encodeHex(b []byte) string { return "0x" + hex.EncodeToString(b) }

// FromHex returns the bytes represented by s, which may be prefixed
// with "0x". An odd-length input is left-padded with a zero nibble,
// matching go-ethereum's hexutil lenience for human-supplied addresses.
func FromHex(s string) []byte {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// AddressList is a sortable, JSON-friendly slice of Address, used for
// election-property authority sets.
type AddressList []Address

func (l AddressList) Len() int           { return len(l) }
func (l AddressList) Less(i, j int) bool { return strings.Compare(l[i].Hex(), l[j].Hex()) < 0 }
func (l AddressList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

// Contains reports whether addr is present in l.
func (l AddressList) Contains(addr Address) bool {
	for _, a := range l {
		if a == addr {
			return true
		}
	}
	return false
}

// Index returns the position of addr in l, or -1 if absent. Election
// bitmap votes reference authorities by this index.
func (l AddressList) Index(addr Address) int {
	for i, a := range l {
		if a == addr {
			return i
		}
	}
	return -1
}

var _ = fmt.Stringer(Hash{})
var _ = fmt.Stringer(Address{})
