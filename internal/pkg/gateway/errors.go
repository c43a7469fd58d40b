/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"fmt"
	"strings"

	gp "github.com/hyperledger/fabric-protos-go/gateway"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies a failure observed while provisioning credentials,
// connecting to a peer or running a transaction.
type Kind int

const (
	Unknown Kind = iota
	CredentialNotFound
	InvalidKeyMaterial
	TrustAnchorUnreadable
	ConnectionError
	EvaluationError
	SubmitError
	CommitRejected
	DeadlineExceeded
)

var kindNames = map[Kind]string{
	Unknown:               "Unknown",
	CredentialNotFound:    "CredentialNotFound",
	InvalidKeyMaterial:    "InvalidKeyMaterial",
	TrustAnchorUnreadable: "TrustAnchorUnreadable",
	ConnectionError:       "ConnectionError",
	EvaluationError:       "EvaluationError",
	SubmitError:           "SubmitError",
	CommitRejected:        "CommitRejected",
	DeadlineExceeded:      "DeadlineExceeded",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the error type returned by the gateway client and the packages
// that provision it.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "evaluate" or "commit status".
	Op string
	// TxID is set once a transaction ID has been generated.
	TxID string
	// Code is the validation code of a rejected transaction.
	Code peer.TxValidationCode
	// Details holds per-endpoint failures reported by the gateway peer.
	Details []*gp.ErrorDetail
	Err     error
}

// NewError creates an Error of the given kind wrapping err.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Kind == CommitRejected {
		fmt.Fprintf(&b, "transaction %s failed to commit with status code %d (%s)", e.TxID, int32(e.Code), e.Code)
	} else {
		if e.Op != "" {
			b.WriteString(e.Op)
			b.WriteString(": ")
		}
		if e.Err != nil {
			b.WriteString(e.Err.Error())
		} else {
			b.WriteString(e.Kind.String())
		}
	}
	for _, d := range e.Details {
		fmt.Fprintf(&b, "\n    address: %s; mspId: %s; message: %s", d.GetAddress(), d.GetMspId(), d.GetMessage())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// GRPCStatus exposes the status of a wrapped gRPC error.
func (e *Error) GRPCStatus() *status.Status {
	if st, ok := status.FromError(e.Err); ok {
		return st
	}
	return status.New(codes.Unknown, e.Error())
}

// KindOf returns the Kind of the first *Error in the chain of err, or Unknown.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.Kind
	}
	return Unknown
}

// ChaincodeMessage returns the message reported by the chaincode or the
// endorsing peers for err, or the error text when no details are attached.
func ChaincodeMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && len(e.Details) > 0 {
		messages := make([]string, 0, len(e.Details))
		for _, d := range e.Details {
			messages = append(messages, d.GetMessage())
		}
		return strings.Join(messages, "; ")
	}
	if st, ok := status.FromError(errors.Cause(err)); ok {
		return st.Message()
	}
	return err.Error()
}

// rpcFailure converts an error returned by a Gateway RPC into an *Error of the
// given kind. Deadline expiry is reported as DeadlineExceeded whatever the
// operation.
func rpcFailure(kind Kind, op, txID string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: DeadlineExceeded, Op: op, TxID: txID, Err: err}
	}
	st, ok := status.FromError(err)
	if !ok {
		return &Error{Kind: kind, Op: op, TxID: txID, Err: err}
	}
	if st.Code() == codes.DeadlineExceeded {
		kind = DeadlineExceeded
	}
	var details []*gp.ErrorDetail
	for _, d := range st.Details() {
		if detail, ok := d.(*gp.ErrorDetail); ok {
			details = append(details, detail)
		}
	}
	return &Error{Kind: kind, Op: op, TxID: txID, Details: details, Err: err}
}
