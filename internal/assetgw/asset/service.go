/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package asset

import (
	"context"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/hyperledger/fabric-asset-gateway/common/flogging"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/events"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway"
	"github.com/pkg/errors"
)

var logger = flogging.MustGetLogger("asset")

// Receipt describes a committed transaction.
type Receipt struct {
	TransactionID string
	BlockNumber   uint64
	// Result is the value returned by the chaincode.
	Result []byte
}

// Service runs asset transactions. Every operation uses its own session.
type Service struct {
	sessions  SessionProvider
	publisher events.Publisher
	retry     gateway.RetryPolicy
	clock     clock.Clock
}

type Option func(*Service)

// WithPublisher publishes an event for every committed transaction.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRetry resubmits transactions rejected for read conflicts.
func WithRetry(policy gateway.RetryPolicy) Option {
	return func(s *Service) { s.retry = policy }
}

// WithClock sets the clock used to timestamp events.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func NewService(sessions SessionProvider, opts ...Option) *Service {
	s := &Service{
		sessions:  sessions,
		publisher: events.Noop{},
		clock:     clock.NewClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitLedger writes the initial set of assets.
func (s *Service) InitLedger(ctx context.Context) (*Receipt, error) {
	return s.submit(ctx, "", "InitLedger")
}

// GetAllAssets returns every asset on the ledger.
func (s *Service) GetAllAssets(ctx context.Context) ([]Asset, error) {
	result, err := s.evaluate(ctx, "GetAllAssets")
	if err != nil {
		return nil, err
	}
	return NormalizeList(result)
}

func (s *Service) CreateAsset(ctx context.Context, a Asset) (*Receipt, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return s.submit(ctx, a.ID, "CreateAsset", a.args()...)
}

func (s *Service) ReadAsset(ctx context.Context, id string) (*Asset, error) {
	if id == "" {
		return nil, errors.Wrap(ErrInvalidInput, "asset id is required")
	}
	result, err := s.evaluate(ctx, "ReadAsset", id)
	if err != nil {
		return nil, err
	}
	return Normalize(result)
}

func (s *Service) UpdateAsset(ctx context.Context, a Asset) (*Receipt, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return s.submit(ctx, a.ID, "UpdateAsset", a.args()...)
}

func (s *Service) DeleteAsset(ctx context.Context, id string) (*Receipt, error) {
	if id == "" {
		return nil, errors.Wrap(ErrInvalidInput, "asset id is required")
	}
	return s.submit(ctx, id, "DeleteAsset", id)
}

func (s *Service) AssetExists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errors.Wrap(ErrInvalidInput, "asset id is required")
	}
	result, err := s.evaluate(ctx, "AssetExists", id)
	if err != nil {
		return false, err
	}
	exists, err := strconv.ParseBool(strings.TrimSpace(string(result)))
	if err != nil {
		return false, errors.Wrapf(err, "unexpected AssetExists result '%s'", result)
	}
	return exists, nil
}

// TransferAsset changes the owner of an asset. The receipt result is the
// previous owner. The transaction is submitted asynchronously and its commit
// status awaited, so the result is only reported for a valid transaction.
func (s *Service) TransferAsset(ctx context.Context, t Transfer) (*Receipt, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	session, err := s.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}

	var receipt *Receipt
	if s.retry.MaxAttempts > 1 {
		receipt, err = s.submitWithRetry(ctx, session.Contract, "TransferAsset", t.ID, t.NewOwner)
	} else {
		receipt, err = s.submitAsync(ctx, session.Contract, "TransferAsset", t.ID, t.NewOwner)
	}
	session.Done(err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "TransferAsset", t.ID, receipt)
	return receipt, nil
}

func (s *Service) evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	session, err := s.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}

	invocation, err := session.Contract.Invoke(ctx, gateway.NewProposal(name, args...), gateway.EvaluateMode)
	session.Done(err)
	if err != nil {
		return nil, err
	}

	result, _ := invocation.Immediate()
	return result, nil
}

func (s *Service) submit(ctx context.Context, assetID, name string, args ...string) (*Receipt, error) {
	session, err := s.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}

	var receipt *Receipt
	if s.retry.MaxAttempts > 1 {
		receipt, err = s.submitWithRetry(ctx, session.Contract, name, args...)
	} else {
		receipt, err = s.invokeAndWait(ctx, session.Contract, name, args...)
	}
	session.Done(err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, name, assetID, receipt)
	return receipt, nil
}

func (s *Service) invokeAndWait(ctx context.Context, contract *gateway.Contract, name string, args ...string) (*Receipt, error) {
	invocation, err := contract.Invoke(ctx, gateway.NewProposal(name, args...), gateway.SubmitMode)
	if err != nil {
		return nil, err
	}
	commit, _ := invocation.Pending()
	return awaitCommit(ctx, commit)
}

func (s *Service) submitAsync(ctx context.Context, contract *gateway.Contract, name string, args ...string) (*Receipt, error) {
	_, commit, err := contract.SubmitAsync(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return awaitCommit(ctx, commit)
}

func (s *Service) submitWithRetry(ctx context.Context, contract *gateway.Contract, name string, args ...string) (*Receipt, error) {
	_, commit, err := contract.SubmitWithRetry(ctx, s.retry, name, args...)
	if err != nil {
		return nil, err
	}
	return awaitCommit(ctx, commit)
}

// awaitCommit waits for the commit status. A status already obtained is
// returned without a further request.
func awaitCommit(ctx context.Context, commit *gateway.Commit) (*Receipt, error) {
	status, err := commit.Status(ctx)
	if err != nil {
		return nil, err
	}
	if err := status.Err(); err != nil {
		logger.Warnf("Transaction %s failed with status %s", status.TransactionID, status.Code)
		return nil, err
	}
	return &Receipt{
		TransactionID: status.TransactionID,
		BlockNumber:   status.BlockNumber,
		Result:        commit.Result(),
	}, nil
}

func (s *Service) publish(ctx context.Context, function, assetID string, receipt *Receipt) {
	event := events.Event{
		TransactionID: receipt.TransactionID,
		Function:      function,
		AssetID:       assetID,
		BlockNumber:   receipt.BlockNumber,
		Timestamp:     s.clock.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warnw("Failed to publish commit event", "txID", receipt.TransactionID, "function", function, "error", err)
	}
}
