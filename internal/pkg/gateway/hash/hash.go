/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package hash provides the message digest functions used before signing.
package hash

import (
	"crypto/sha256"
	"crypto/sha512"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// Hash computes the digest of a message.
type Hash = func(message []byte) []byte

// SHA256 hash the supplied message bytes to create a digest for signing.
func SHA256(message []byte) []byte {
	digest := sha256.Sum256(message)
	return digest[:]
}

// SHA384 hash the supplied message bytes to create a digest for signing.
func SHA384(message []byte) []byte {
	digest := sha512.Sum384(message)
	return digest[:]
}

// SHA3_256 hash the supplied message bytes to create a digest for signing.
func SHA3_256(message []byte) []byte {
	digest := sha3.Sum256(message)
	return digest[:]
}

// SHA3_384 hash the supplied message bytes to create a digest for signing.
func SHA3_384(message []byte) []byte {
	digest := sha3.Sum384(message)
	return digest[:]
}

// NONE returns the supplied message unchanged. Signers that hash internally,
// such as Ed25519, require it.
func NONE(message []byte) []byte {
	return message
}

// ByName returns the hash function for a configured name.
func ByName(name string) (Hash, error) {
	switch strings.ToUpper(name) {
	case "", "SHA256", "SHA2-256":
		return SHA256, nil
	case "SHA384", "SHA2-384":
		return SHA384, nil
	case "SHA3-256", "SHA3_256":
		return SHA3_256, nil
	case "SHA3-384", "SHA3_384":
		return SHA3_384, nil
	case "NONE":
		return NONE, nil
	default:
		return nil, errors.Errorf("unsupported hash function: %s", name)
	}
}
