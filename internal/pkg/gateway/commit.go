/*
Copyright 2021 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"sync"

	"github.com/golang/protobuf/proto"
	gp "github.com/hyperledger/fabric-protos-go/gateway"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

// Status is the outcome of a transaction that has been committed to the
// ledger, either as valid or as rejected by validation.
type Status struct {
	TransactionID string
	Code          peer.TxValidationCode
	Successful    bool
	BlockNumber   uint64
}

// State returns Committed or Rejected.
func (s *Status) State() TxState {
	if s.Successful {
		return Committed
	}
	return Rejected
}

// Err returns a CommitRejected error for an unsuccessful transaction and nil
// otherwise.
func (s *Status) Err() error {
	if s.Successful {
		return nil
	}
	return &Error{Kind: CommitRejected, Op: "commit", TxID: s.TransactionID, Code: s.Code}
}

// Commit tracks a transaction that has been accepted for ordering.
type Commit struct {
	gateway *Gateway
	channel string
	txID    string
	result  []byte
	tracker *tracker

	mutex  sync.Mutex
	status *Status
}

func (c *Commit) TransactionID() string { return c.txID }

// Result returns the endorsement result. It only reflects the ledger once
// Status reports the transaction as successful.
func (c *Commit) Result() []byte { return c.result }

// Status blocks until the transaction reaches a terminal state, ctx is done
// or the commit status timeout expires. A terminal status is remembered and
// returned by subsequent calls without contacting the peer. Concurrent
// callers each wait under their own context.
func (c *Commit) Status(ctx context.Context) (*Status, error) {
	c.mutex.Lock()
	status := c.status
	c.mutex.Unlock()
	if status != nil {
		return status, nil
	}

	status, err := c.queryStatus(ctx)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err != nil {
		c.tracker.done()
		return nil, err
	}
	if c.status != nil {
		return c.status, nil
	}

	c.tracker.state = status.State()
	c.tracker.done()
	if !status.Successful {
		logger.Warnw("Transaction rejected", "txID", c.txID, "code", status.Code.String(), "block", status.BlockNumber)
	} else {
		logger.Debugw("Transaction committed", "txID", c.txID, "block", status.BlockNumber)
	}

	c.status = status
	return status, nil
}

func (c *Commit) queryStatus(ctx context.Context) (*Status, error) {
	request := &gp.CommitStatusRequest{
		ChannelId:     c.channel,
		TransactionId: c.txID,
		Identity:      c.gateway.creator,
	}
	requestBytes, err := proto.Marshal(request)
	if err != nil {
		return nil, &Error{Kind: SubmitError, Op: "commit status", TxID: c.txID, Err: errors.Wrap(err, "failed to marshal commit status request")}
	}
	signature, err := c.gateway.signDigest(requestBytes)
	if err != nil {
		return nil, &Error{Kind: SubmitError, Op: "commit status", TxID: c.txID, Err: errors.WithMessage(err, "failed to sign commit status request")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.gateway.options.CommitStatusTimeout)
	defer cancel()

	response, err := c.gateway.client.CommitStatus(ctx, &gp.SignedCommitStatusRequest{
		Request:   requestBytes,
		Signature: signature,
	})
	if err != nil {
		return nil, rpcFailure(SubmitError, "commit status", c.txID, err)
	}

	return &Status{
		TransactionID: c.txID,
		Code:          response.GetResult(),
		Successful:    response.GetResult() == peer.TxValidationCode_VALID,
		BlockNumber:   response.GetBlockNumber(),
	}, nil
}
