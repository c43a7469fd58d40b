/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"net/http"
	"strings"

	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/asset"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway"
	"github.com/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusCode translates err into the HTTP status reported to the caller.
func StatusCode(err error) int {
	if errors.Is(err, asset.ErrInvalidInput) {
		return http.StatusBadRequest
	}

	switch gateway.KindOf(err) {
	case gateway.CredentialNotFound, gateway.InvalidKeyMaterial, gateway.TrustAnchorUnreadable:
		return http.StatusInternalServerError
	case gateway.ConnectionError:
		return http.StatusServiceUnavailable
	case gateway.EvaluationError, gateway.SubmitError:
		message := gateway.ChaincodeMessage(err)
		switch {
		case strings.Contains(message, "does not exist"):
			return http.StatusNotFound
		case strings.Contains(message, "already exists"):
			return http.StatusConflict
		default:
			return http.StatusInternalServerError
		}
	case gateway.CommitRejected:
		return http.StatusConflict
	case gateway.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
