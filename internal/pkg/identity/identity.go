/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package identity provides a set of interfaces for identity-related operations.
package identity

import (
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway/hash"
	"github.com/hyperledger/fabric-asset-gateway/protoutil"
)

// Signer is an interface which wraps the Sign method.
//
// Sign signs message bytes and returns the signature or an error on failure.
type Signer interface {
	Sign(message []byte) ([]byte, error)
}

// Serializer is an interface which wraps the Serialize function.
//
// Serialize converts an identity to bytes.  It returns an error on failure.
type Serializer interface {
	Serialize() ([]byte, error)
}

// SignerSerializer groups the Sign and Serialize methods.
type SignerSerializer interface {
	Signer
	Serializer
}

// Identity is a client identity as known to a Fabric MSP.
type Identity interface {
	MspID() string
	Credentials() []byte
}

// Sign produces a signature over a message digest.
type Sign = func(digest []byte) ([]byte, error)

// X509Identity is a client identity backed by an X.509 certificate. The
// certificate bytes are carried as loaded and are not validated.
type X509Identity struct {
	mspID       string
	certificate []byte
}

// NewX509Identity creates an identity from a member services provider ID and
// PEM encoded certificate bytes.
func NewX509Identity(mspID string, certificate []byte) *X509Identity {
	return &X509Identity{
		mspID:       mspID,
		certificate: append([]byte(nil), certificate...),
	}
}

func (id *X509Identity) MspID() string { return id.mspID }

func (id *X509Identity) Credentials() []byte { return append([]byte(nil), id.certificate...) }

// Serialize returns the SerializedIdentity encoding of an identity, as used
// for transaction creators.
func Serialize(id Identity) ([]byte, error) {
	return protoutil.MarshalSerializedIdentity(id.MspID(), id.Credentials())
}

type signingIdentity struct {
	id   Identity
	sign Sign
	hash hash.Hash
}

// NewSigningIdentity combines an identity with a signing function. Messages
// are digested with h before they are signed.
func NewSigningIdentity(id Identity, sign Sign, h hash.Hash) SignerSerializer {
	return &signingIdentity{id: id, sign: sign, hash: h}
}

func (s *signingIdentity) Sign(message []byte) ([]byte, error) {
	return s.sign(s.hash(message))
}

func (s *signingIdentity) Serialize() ([]byte, error) {
	return Serialize(s.id)
}
