/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credentials

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"math/big"

	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/identity"
	"github.com/pkg/errors"
)

// ParsePrivateKeyPEM decodes a PEM encoded PKCS#8 or SEC 1 private key.
func ParsePrivateKeyPEM(pemBytes []byte) (crypto.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err == nil {
		return key, nil
	}

	ecKey, ecErr := x509.ParseECPrivateKey(block.Bytes)
	if ecErr == nil {
		return ecKey, nil
	}

	return nil, errors.Wrap(err, "failed to parse private key")
}

// NewPrivateKeySign returns a signing function for an ECDSA or Ed25519
// private key. ECDSA signatures are ASN.1 DER encoded with a low S value.
// Ed25519 signs the message itself so must be paired with the NONE hash.
func NewPrivateKeySign(key crypto.PrivateKey) (identity.Sign, error) {
	switch k := key.(type) {
	case *ecdsa.PrivateKey:
		return ecdsaSign(k), nil
	case ed25519.PrivateKey:
		return ed25519Sign(k), nil
	default:
		return nil, errors.Errorf("unsupported key type: %T", key)
	}
}

type ecdsaSignature struct {
	R, S *big.Int
}

func ecdsaSign(key *ecdsa.PrivateKey) identity.Sign {
	return func(digest []byte) ([]byte, error) {
		r, s, err := ecdsa.Sign(rand.Reader, key, digest)
		if err != nil {
			return nil, err
		}
		return asn1.Marshal(toLowS(key.PublicKey, ecdsaSignature{R: r, S: s}))
	}
}

// toLowS normalizes a signature so that s is at most half the order of the
// curve. Peers reject signatures in any other form.
func toLowS(key ecdsa.PublicKey, sig ecdsaSignature) ecdsaSignature {
	halfOrder := new(big.Int).Rsh(key.Curve.Params().N, 1)
	if sig.S.Cmp(halfOrder) == 1 {
		sig.S.Sub(key.Params().N, sig.S)
	}
	return sig
}

func ed25519Sign(key ed25519.PrivateKey) identity.Sign {
	return func(message []byte) ([]byte, error) {
		return ed25519.Sign(key, message), nil
	}
}
