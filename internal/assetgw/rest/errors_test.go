/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/asset"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/rest"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway"
	gp "github.com/hyperledger/fabric-protos-go/gateway"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusCode(t *testing.T) {
	endorseFailure := func(message string) error {
		st, err := status.New(codes.Aborted, "failed to endorse transaction, see attached details for more info").
			WithDetails(&gp.ErrorDetail{Address: "peer0.org1.example.com", MspId: "Org1MSP", Message: message})
		require.NoError(t, err)
		return &gateway.Error{Kind: gateway.SubmitError, Op: "endorse", Err: st.Err(), Details: []*gp.ErrorDetail{{Message: message}}}
	}

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid input", errors.Wrap(asset.ErrInvalidInput, "asset id is required"), http.StatusBadRequest},
		{"credential not found", gateway.NewError(gateway.CredentialNotFound, "load identity", errors.New("missing")), http.StatusInternalServerError},
		{"invalid key", gateway.NewError(gateway.InvalidKeyMaterial, "load signer", errors.New("bad key")), http.StatusInternalServerError},
		{"trust anchor", gateway.NewError(gateway.TrustAnchorUnreadable, "connect", errors.New("missing")), http.StatusInternalServerError},
		{"connection", gateway.NewError(gateway.ConnectionError, "connect", errors.New("refused")), http.StatusServiceUnavailable},
		{"missing asset", endorseFailure("error 500, the asset asset9 does not exist"), http.StatusNotFound},
		{"existing asset", endorseFailure("error 500, the asset asset1 already exists"), http.StatusConflict},
		{"chaincode failure", endorseFailure("error 500, Incorrect number of params. Expected 5, received 4"), http.StatusInternalServerError},
		{"evaluation unavailable", gateway.NewError(gateway.EvaluationError, "evaluate", status.Error(codes.Unavailable, "connection refused")), http.StatusInternalServerError},
		{"commit rejected", &gateway.Error{Kind: gateway.CommitRejected, TxID: "tx1"}, http.StatusConflict},
		{"deadline", gateway.NewError(gateway.DeadlineExceeded, "commit status", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"wrapped kind", errors.WithMessage(gateway.NewError(gateway.ConnectionError, "connection pool", errors.New("closed")), "session"), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, rest.StatusCode(tt.err))
		})
	}
}
