/*
Copyright 2021 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-asset-gateway/protoutil"
	"github.com/hyperledger/fabric-protos-go/common"
	gp "github.com/hyperledger/fabric-protos-go/gateway"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

// Proposal describes a transaction function invocation.
type Proposal struct {
	Name string
	Args [][]byte
	// Transient data is passed to the chaincode but not recorded on the ledger.
	Transient map[string][]byte
	// EndorsingOrganizations restricts endorsement to peers of these MSPs.
	EndorsingOrganizations []string
}

// NewProposal creates a Proposal with string arguments.
func NewProposal(name string, args ...string) Proposal {
	return Proposal{Name: name, Args: StringArgs(args...)}
}

// StringArgs converts string arguments to their byte form.
func StringArgs(args ...string) [][]byte {
	result := make([][]byte, 0, len(args))
	for _, arg := range args {
		result = append(result, []byte(arg))
	}
	return result
}

// Contract invokes the transaction functions of one chaincode on one channel.
type Contract struct {
	gateway   *Gateway
	channel   string
	chaincode string
}

func (c *Contract) ChaincodeName() string { return c.chaincode }

func (c *Contract) ChannelName() string { return c.channel }

// Evaluate runs a transaction function on a single peer and returns its
// result. Nothing is recorded on the ledger.
func (c *Contract) Evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	return c.EvaluateTransaction(ctx, NewProposal(name, args...))
}

// EvaluateTransaction is Evaluate for a fully specified Proposal.
func (c *Contract) EvaluateTransaction(ctx context.Context, p Proposal) ([]byte, error) {
	t := c.gateway.track(p.Name, "evaluate")
	defer t.done()

	if c.gateway.isClosed() {
		return nil, NewError(ConnectionError, "evaluate", errors.New("gateway is closed"))
	}

	signed, txID, err := c.signedProposal(p)
	if err != nil {
		return nil, NewError(EvaluationError, "evaluate", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.gateway.options.EvaluateTimeout)
	defer cancel()

	logger.Debugw("Evaluating transaction", "channel", c.channel, "chaincode", c.chaincode, "function", p.Name, "txID", txID)
	response, err := c.gateway.client.Evaluate(ctx, &gp.EvaluateRequest{
		TransactionId:       txID,
		ChannelId:           c.channel,
		ProposedTransaction: signed,
	})
	if err != nil {
		return nil, rpcFailure(EvaluationError, "evaluate", txID, err)
	}

	t.state = Evaluated
	return response.GetResult().GetPayload(), nil
}

// Submit endorses a transaction, sends it for ordering and waits for it to
// commit. The endorsement result is returned only if the transaction is
// committed as valid; otherwise the error is of kind CommitRejected.
func (c *Contract) Submit(ctx context.Context, name string, args ...string) ([]byte, error) {
	return c.SubmitTransaction(ctx, NewProposal(name, args...))
}

// SubmitTransaction is Submit for a fully specified Proposal.
func (c *Contract) SubmitTransaction(ctx context.Context, p Proposal) ([]byte, error) {
	result, _, err := c.submitAndWait(ctx, p)
	return result, err
}

// SubmitAsync endorses a transaction and returns once it has been accepted
// for ordering. The returned Commit reports the outcome.
func (c *Contract) SubmitAsync(ctx context.Context, name string, args ...string) ([]byte, *Commit, error) {
	return c.submitAsync(ctx, NewProposal(name, args...))
}

// SubmitTransactionAsync is SubmitAsync for a fully specified Proposal.
func (c *Contract) SubmitTransactionAsync(ctx context.Context, p Proposal) ([]byte, *Commit, error) {
	return c.submitAsync(ctx, p)
}

func (c *Contract) submitAsync(ctx context.Context, p Proposal) ([]byte, *Commit, error) {
	t := c.gateway.track(p.Name, "submit")

	result, commit, err := c.endorseAndSubmit(ctx, p, t)
	if err != nil {
		t.done()
		return nil, nil, err
	}
	return result, commit, nil
}

func (c *Contract) endorseAndSubmit(ctx context.Context, p Proposal, t *tracker) ([]byte, *Commit, error) {
	if c.gateway.isClosed() {
		return nil, nil, NewError(ConnectionError, "submit", errors.New("gateway is closed"))
	}

	signed, txID, err := c.signedProposal(p)
	if err != nil {
		return nil, nil, NewError(SubmitError, "endorse", err)
	}

	logger.Debugw("Endorsing transaction", "channel", c.channel, "chaincode", c.chaincode, "function", p.Name, "txID", txID)
	endorseCtx, cancel := context.WithTimeout(ctx, c.gateway.options.EndorseTimeout)
	endorsement, err := c.gateway.client.Endorse(endorseCtx, &gp.EndorseRequest{
		TransactionId:          txID,
		ChannelId:              c.channel,
		ProposedTransaction:    signed,
		EndorsingOrganizations: p.EndorsingOrganizations,
	})
	cancel()
	if err != nil {
		return nil, nil, rpcFailure(SubmitError, "endorse", txID, err)
	}

	envelope := endorsement.GetPreparedTransaction()
	if envelope == nil {
		return nil, nil, &Error{Kind: SubmitError, Op: "endorse", TxID: txID, Err: errors.New("endorse response contains no prepared transaction")}
	}
	t.state = Endorsed

	result, err := transactionResult(envelope)
	if err != nil {
		return nil, nil, &Error{Kind: SubmitError, Op: "endorse", TxID: txID, Err: err}
	}

	envelope.Signature, err = c.gateway.signDigest(envelope.Payload)
	if err != nil {
		return nil, nil, &Error{Kind: SubmitError, Op: "submit", TxID: txID, Err: err}
	}

	logger.Debugw("Submitting transaction", "channel", c.channel, "txID", txID)
	submitCtx, cancel := context.WithTimeout(ctx, c.gateway.options.SubmitTimeout)
	_, err = c.gateway.client.Submit(submitCtx, &gp.SubmitRequest{
		TransactionId:       txID,
		ChannelId:           c.channel,
		PreparedTransaction: envelope,
	})
	cancel()
	if err != nil {
		return nil, nil, rpcFailure(SubmitError, "submit", txID, err)
	}
	t.state = Ordered

	return result, &Commit{
		gateway: c.gateway,
		channel: c.channel,
		txID:    txID,
		result:  result,
		tracker: t,
	}, nil
}

func (c *Contract) signedProposal(p Proposal) (*peer.SignedProposal, string, error) {
	proposal, txID, err := protoutil.CreateChaincodeProposal(c.channel, c.chaincode, p.Name, p.Args, c.gateway.creator, p.Transient)
	if err != nil {
		return nil, "", errors.WithMessage(err, "failed to create proposal")
	}

	proposalBytes, err := proto.Marshal(proposal)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to marshal proposal")
	}

	signature, err := c.gateway.signDigest(proposalBytes)
	if err != nil {
		return nil, "", errors.WithMessage(err, "failed to sign proposal")
	}

	return &peer.SignedProposal{ProposalBytes: proposalBytes, Signature: signature}, txID, nil
}

// transactionResult extracts the chaincode response payload from an
// endorsed transaction envelope.
func transactionResult(envelope *common.Envelope) ([]byte, error) {
	action, err := protoutil.GetActionFromEnvelopeMsg(envelope)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to extract transaction result")
	}
	return action.GetResponse().GetPayload(), nil
}

type tracker struct {
	metrics  *Metrics
	function string
	mode     string
	start    time.Time
	state    TxState
	recorded bool
}

func (gw *Gateway) track(function, mode string) *tracker {
	return &tracker{metrics: gw.metrics, function: function, mode: mode, start: time.Now()}
}

func (t *tracker) done() {
	if t.recorded {
		return
	}
	t.recorded = true
	t.metrics.TransactionsTotal.With("function", t.function, "mode", t.mode, "state", t.state.String()).Add(1)
	t.metrics.InvocationDuration.With("function", t.function, "mode", t.mode).Observe(time.Since(t.start).Seconds())
}
