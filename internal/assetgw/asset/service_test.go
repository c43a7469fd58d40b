/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package asset_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/asset"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/events"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/events/fakes"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/comm"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/credentials"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway/gatewaytest"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newSessionConfig(t *testing.T, server *gatewaytest.Server) asset.SessionConfig {
	t.Helper()

	dir := t.TempDir()
	user, err := server.NewUser(dir)
	require.NoError(t, err)
	rootCert, err := server.WriteTLSRootCert(dir)
	require.NoError(t, err)

	return asset.SessionConfig{
		Channel:       server.ChannelID(),
		Chaincode:     server.ChaincodeName(),
		MspID:         user.MspID,
		PeerEndpoint:  server.Address(),
		PeerHostAlias: server.HostAlias(),
		TLSRootCert:   rootCert,
		CertPath:      user.CertPath,
		KeyPath:       user.KeyPath,
		Client:        comm.ClientConfig{},
	}
}

func newServer(t *testing.T, config gatewaytest.Config) *gatewaytest.Server {
	t.Helper()

	server, err := gatewaytest.NewServer(config)
	require.NoError(t, err)
	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)
	return server
}

func newService(t *testing.T, opts ...asset.Option) (*asset.Service, *gatewaytest.Server) {
	t.Helper()

	server := newServer(t, gatewaytest.Config{})
	sessions := &asset.PerRequestSessions{Config: newSessionConfig(t, server)}
	service := asset.NewService(sessions, opts...)

	_, err := service.InitLedger(context.Background())
	require.NoError(t, err)
	return service, server
}

func TestInitLedgerAndGetAllAssets(t *testing.T) {
	service, server := newService(t)
	require.Equal(t, uint64(2), server.Height())

	assets, err := service.GetAllAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 6)
	require.Equal(t, asset.Asset{ID: "asset1", Color: "blue", Size: "5", Owner: "Tomoko", Value: "300"}, assets[0])
	require.Equal(t, 1, server.Transactions())
}

func TestGetAllAssetsEmptyLedger(t *testing.T) {
	server := newServer(t, gatewaytest.Config{})
	service := asset.NewService(&asset.PerRequestSessions{Config: newSessionConfig(t, server)})

	assets, err := service.GetAllAssets(context.Background())
	require.NoError(t, err)
	require.Empty(t, assets)
	require.Equal(t, 0, server.Transactions())
}

func TestCreateReadRoundTrip(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	created := asset.Asset{ID: "asset7", Color: "purple", Size: "10", Owner: "Alice", Value: "500"}
	receipt, err := service.CreateAsset(ctx, created)
	require.NoError(t, err)
	require.Len(t, receipt.TransactionID, 64)
	require.Equal(t, uint64(2), receipt.BlockNumber)

	read, err := service.ReadAsset(ctx, "asset7")
	require.NoError(t, err)
	require.Equal(t, &created, read)
}

func TestCreateExistingAsset(t *testing.T) {
	service, server := newService(t)

	_, err := service.CreateAsset(context.Background(), asset.Asset{ID: "asset1", Color: "blue", Size: "5", Owner: "Tomoko", Value: "300"})
	require.Equal(t, gateway.SubmitError, gateway.KindOf(err))
	require.Contains(t, gateway.ChaincodeMessage(err), "the asset asset1 already exists")
	require.Equal(t, 1, server.Transactions())
}

func TestCreateAssetInvalidSize(t *testing.T) {
	service, _ := newService(t)

	_, err := service.CreateAsset(context.Background(), asset.Asset{ID: "asset7", Size: "big", Value: "1"})
	require.Equal(t, gateway.SubmitError, gateway.KindOf(err))
	require.Contains(t, gateway.ChaincodeMessage(err), "Value big was not passed in expected format int")
}

func TestInvalidInputIsRejectedLocally(t *testing.T) {
	service, server := newService(t)
	ctx := context.Background()
	endorsements := server.Endorsements()

	_, err := service.CreateAsset(ctx, asset.Asset{Color: "blue"})
	require.True(t, errors.Is(err, asset.ErrInvalidInput))
	_, err = service.UpdateAsset(ctx, asset.Asset{})
	require.True(t, errors.Is(err, asset.ErrInvalidInput))
	_, err = service.TransferAsset(ctx, asset.Transfer{ID: "asset1"})
	require.True(t, errors.Is(err, asset.ErrInvalidInput))
	_, err = service.ReadAsset(ctx, "")
	require.True(t, errors.Is(err, asset.ErrInvalidInput))
	_, err = service.DeleteAsset(ctx, "")
	require.True(t, errors.Is(err, asset.ErrInvalidInput))
	_, err = service.AssetExists(ctx, "")
	require.True(t, errors.Is(err, asset.ErrInvalidInput))

	require.Equal(t, endorsements, server.Endorsements())
	require.Equal(t, 0, server.Evaluations())
}

func TestUpdateExistsDelete(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	_, err := service.UpdateAsset(ctx, asset.Asset{ID: "asset2", Color: "orange", Size: "6", Owner: "Brad", Value: "450"})
	require.NoError(t, err)
	read, err := service.ReadAsset(ctx, "asset2")
	require.NoError(t, err)
	require.Equal(t, "orange", read.Color)
	require.Equal(t, "450", read.Value)

	exists, err := service.AssetExists(ctx, "asset2")
	require.NoError(t, err)
	require.True(t, exists)

	_, err = service.DeleteAsset(ctx, "asset2")
	require.NoError(t, err)

	exists, err = service.AssetExists(ctx, "asset2")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = service.ReadAsset(ctx, "asset2")
	require.Equal(t, gateway.EvaluationError, gateway.KindOf(err))
	require.Contains(t, gateway.ChaincodeMessage(err), "the asset asset2 does not exist")

	_, err = service.UpdateAsset(ctx, asset.Asset{ID: "asset2", Size: "1", Value: "1"})
	require.Equal(t, gateway.SubmitError, gateway.KindOf(err))
	_, err = service.DeleteAsset(ctx, "asset2")
	require.Contains(t, gateway.ChaincodeMessage(err), "the asset asset2 does not exist")
}

func TestTransferAsset(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	receipt, err := service.TransferAsset(ctx, asset.Transfer{ID: "asset1", NewOwner: "Ann"})
	require.NoError(t, err)
	require.Equal(t, "Tomoko", string(receipt.Result))

	read, err := service.ReadAsset(ctx, "asset1")
	require.NoError(t, err)
	require.Equal(t, "Ann", read.Owner)

	_, err = service.TransferAsset(ctx, asset.Transfer{ID: "asset99", NewOwner: "Ann"})
	require.Equal(t, gateway.SubmitError, gateway.KindOf(err))
	require.Contains(t, gateway.ChaincodeMessage(err), "the asset asset99 does not exist")
}

func TestConcurrentTransfers(t *testing.T) {
	service, server := newService(t)
	server.SetBatchSize(2)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, owner := range []string{"Ann", "Bob"} {
		wg.Add(1)
		go func(i int, owner string) {
			defer wg.Done()
			_, errs[i] = service.TransferAsset(context.Background(), asset.Transfer{ID: "asset1", NewOwner: owner})
		}(i, owner)
	}
	wg.Wait()

	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	require.Len(t, failures, 1)

	var gwErr *gateway.Error
	require.True(t, errors.As(failures[0], &gwErr))
	require.Equal(t, gateway.CommitRejected, gwErr.Kind)
	require.Equal(t, peer.TxValidationCode_MVCC_READ_CONFLICT, gwErr.Code)
}

func TestCommitRejectionWithRetry(t *testing.T) {
	service, server := newService(t, asset.WithRetry(gateway.RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond}))

	receipt, err := service.TransferAsset(context.Background(), asset.Transfer{ID: "asset3", NewOwner: "Ann"})
	require.NoError(t, err)
	require.Equal(t, "Jin Soo", string(receipt.Result))

	_, err = service.CreateAsset(context.Background(), asset.Asset{ID: "asset8", Size: "1", Value: "1"})
	require.NoError(t, err)
	require.Equal(t, 3, server.Transactions())
}

func TestPublishesCommitEvents(t *testing.T) {
	publisher := &fakes.Publisher{}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	service, _ := newService(t, asset.WithPublisher(publisher), asset.WithClock(fakeclock.NewFakeClock(now)))
	require.Equal(t, 1, publisher.PublishCallCount())

	receipt, err := service.TransferAsset(context.Background(), asset.Transfer{ID: "asset1", NewOwner: "Ann"})
	require.NoError(t, err)
	require.Equal(t, 2, publisher.PublishCallCount())

	_, event := publisher.PublishArgsForCall(1)
	require.Equal(t, events.Event{
		TransactionID: receipt.TransactionID,
		Function:      "TransferAsset",
		AssetID:       "asset1",
		BlockNumber:   receipt.BlockNumber,
		Timestamp:     now,
	}, event)

	_, err = service.ReadAsset(context.Background(), "asset1")
	require.NoError(t, err)
	require.Equal(t, 2, publisher.PublishCallCount())
}

func TestPublishFailureDoesNotFailTransaction(t *testing.T) {
	publisher := &fakes.Publisher{}
	publisher.PublishReturns(errors.New("broker down"))
	service, _ := newService(t, asset.WithPublisher(publisher))

	_, err := service.DeleteAsset(context.Background(), "asset6")
	require.NoError(t, err)
	require.Equal(t, 2, publisher.PublishCallCount())
}

func TestRejectedTransactionIsNotPublished(t *testing.T) {
	publisher := &fakes.Publisher{}
	service, server := newService(t, asset.WithPublisher(publisher))
	server.SetBatchSize(2)

	var wg sync.WaitGroup
	for _, owner := range []string{"Ann", "Bob"} {
		wg.Add(1)
		go func(owner string) {
			defer wg.Done()
			service.TransferAsset(context.Background(), asset.Transfer{ID: "asset2", NewOwner: owner})
		}(owner)
	}
	wg.Wait()

	require.Equal(t, 2, publisher.PublishCallCount())
}

func TestPerRequestSessionErrors(t *testing.T) {
	server := newServer(t, gatewaytest.Config{})
	config := newSessionConfig(t, server)

	missing := config
	missing.CertPath = t.TempDir()
	_, err := (&asset.PerRequestSessions{Config: missing}).Session(context.Background())
	require.Equal(t, gateway.CredentialNotFound, gateway.KindOf(err))

	badRoot := config
	badRoot.TLSRootCert = "/nonexistent/ca.crt"
	_, err = (&asset.PerRequestSessions{Config: badRoot}).Session(context.Background())
	require.Equal(t, gateway.TrustAnchorUnreadable, gateway.KindOf(err))

	badEndpoint := config
	badEndpoint.PeerEndpoint = "localhost"
	_, err = (&asset.PerRequestSessions{Config: badEndpoint}).Session(context.Background())
	require.Equal(t, gateway.ConnectionError, gateway.KindOf(err))
}

func newPooledSessions(t *testing.T, config asset.SessionConfig) (*asset.PooledSessions, *credentials.Cache, *comm.Pool) {
	t.Helper()

	cache := credentials.NewCache(credentials.Loader{Selection: config.Selection}, 8, 0)
	pool := comm.NewPool(config.Dial, comm.PoolOptions{MaxConnections: 2})
	sessions := asset.NewPooledSessions(config, cache, pool)
	t.Cleanup(func() { sessions.Close() })
	return sessions, cache, pool
}

func TestPooledSessions(t *testing.T) {
	server := newServer(t, gatewaytest.Config{})
	sessions, cache, pool := newPooledSessions(t, newSessionConfig(t, server))
	service := asset.NewService(sessions)
	ctx := context.Background()

	_, err := service.InitLedger(ctx)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := service.ReadAsset(ctx, "asset1")
		require.NoError(t, err)
	}

	active, idle := pool.Stats()
	require.Equal(t, 0, active)
	require.Equal(t, 1, idle)
	require.Equal(t, 1, cache.Len())
	require.NoError(t, sessions.HealthCheck(ctx))

	require.NoError(t, sessions.Close())
	require.EqualError(t, sessions.HealthCheck(ctx), "connection pool is closed")
}

func TestPooledSessionsDiscardUnavailableConnections(t *testing.T) {
	server := newServer(t, gatewaytest.Config{})
	sessions, _, pool := newPooledSessions(t, newSessionConfig(t, server))
	service := asset.NewService(sessions)
	ctx := context.Background()

	_, err := service.AssetExists(ctx, "asset1")
	require.NoError(t, err)
	_, idle := pool.Stats()
	require.Equal(t, 1, idle)

	server.SetFailure("Evaluate", status.Error(codes.Unavailable, "peer unreachable"))
	_, err = service.AssetExists(ctx, "asset1")
	require.Equal(t, gateway.EvaluationError, gateway.KindOf(err))

	active, idle := pool.Stats()
	require.Equal(t, 0, active)
	require.Equal(t, 0, idle)

	server.SetFailure("Evaluate", nil)
	exists, err := service.AssetExists(ctx, "asset1")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestPooledSessionsCredentialFailure(t *testing.T) {
	server := newServer(t, gatewaytest.Config{})
	config := newSessionConfig(t, server)
	config.KeyPath = t.TempDir()
	sessions, cache, pool := newPooledSessions(t, config)

	_, err := sessions.Session(context.Background())
	require.Equal(t, gateway.CredentialNotFound, gateway.KindOf(err))
	require.Equal(t, 0, cache.Len())

	active, idle := pool.Stats()
	require.Equal(t, 0, active+idle)
}

func TestSessionDoneOnce(t *testing.T) {
	calls := 0
	session := asset.NewSession(nil, func(error) { calls++ })
	session.Done(nil)
	session.Done(errors.New("again"))
	require.Equal(t, 1, calls)

	asset.NewSession(nil, nil).Done(nil)
}
