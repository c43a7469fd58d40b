/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gatewaytest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/require"
)

func simulate(t *testing.T, l *ledger, args ...string) (*peer.Response, *stub) {
	t.Helper()
	st := newStub(l)
	input := make([][]byte, 0, len(args))
	for _, arg := range args {
		input = append(input, []byte(arg))
	}
	return invokeChaincode(st, input), st
}

func commit(t *testing.T, l *ledger, txID string, args ...string) *TxStatus {
	t.Helper()
	response, st := simulate(t, l, args...)
	require.EqualValues(t, 200, response.Status, response.Message)
	require.NoError(t, l.order(txID, st.rwset()))
	status, ok := l.statuses[txID]
	require.True(t, ok)
	return status
}

func TestInitLedger(t *testing.T) {
	l := newLedger(1)
	status := commit(t, l, "tx1", "InitLedger")
	require.Equal(t, peer.TxValidationCode_VALID, status.Code)
	require.EqualValues(t, 1, status.BlockNumber)
	require.EqualValues(t, 2, l.blockHeight())

	response, _ := simulate(t, l, "GetAllAssets")
	var assets []Asset
	require.NoError(t, json.Unmarshal(response.Payload, &assets))
	require.Equal(t, InitialAssets, assets)
}

func TestChaincodeErrors(t *testing.T) {
	l := newLedger(1)
	commit(t, l, "tx1", "InitLedger")

	tests := []struct {
		args    []string
		message string
	}{
		{[]string{"ReadAsset", "asset99"}, "the asset asset99 does not exist"},
		{[]string{"CreateAsset", "asset1", "blue", "5", "Tom", "100"}, "the asset asset1 already exists"},
		{[]string{"CreateAsset", "asset7", "blue", "big", "Tom", "100"}, "Value big was not passed in expected format int"},
		{[]string{"TransferAsset", "asset1"}, "Incorrect number of params. Expected 2, received 1"},
		{[]string{"Unknown"}, "Function Unknown not found in contract SmartContract"},
	}
	for _, tt := range tests {
		response, _ := simulate(t, l, tt.args...)
		require.EqualValues(t, 500, response.Status)
		require.Contains(t, response.Message, tt.message)
	}
}

func TestTransferReturnsPreviousOwner(t *testing.T) {
	l := newLedger(1)
	commit(t, l, "tx1", "InitLedger")

	response, st := simulate(t, l, "TransferAsset", "asset1", "Christopher")
	require.Equal(t, "Tomoko", string(response.Payload))
	require.NoError(t, l.order("tx2", st.rwset()))

	response, _ = simulate(t, l, "ReadAsset", "asset1")
	var asset Asset
	require.NoError(t, json.Unmarshal(response.Payload, &asset))
	require.Equal(t, "Christopher", asset.Owner)
}

func TestMVCCConflictWithinBlock(t *testing.T) {
	l := newLedger(1)
	commit(t, l, "tx1", "InitLedger")
	l.setBatchSize(2)

	_, first := simulate(t, l, "TransferAsset", "asset1", "Alice")
	_, second := simulate(t, l, "TransferAsset", "asset1", "Bob")
	require.NoError(t, l.order("tx2", first.rwset()))
	require.Equal(t, 1, l.pendingCount())
	require.NoError(t, l.order("tx3", second.rwset()))
	require.Zero(t, l.pendingCount())

	require.Equal(t, peer.TxValidationCode_VALID, l.statuses["tx2"].Code)
	require.Equal(t, peer.TxValidationCode_MVCC_READ_CONFLICT, l.statuses["tx3"].Code)
	require.Equal(t, l.statuses["tx2"].BlockNumber, l.statuses["tx3"].BlockNumber)

	var asset Asset
	require.NoError(t, json.Unmarshal(l.get("asset1").value, &asset))
	require.Equal(t, "Alice", asset.Owner)
}

func TestPhantomReadConflict(t *testing.T) {
	l := newLedger(1)
	commit(t, l, "tx1", "InitLedger")

	_, scan := simulate(t, l, "GetAllAssets")
	scan.PutState("summary", []byte("6 assets"))
	commit(t, l, "tx2", "CreateAsset", "asset7", "pink", "1", "Zoe", "10")

	require.NoError(t, l.order("tx3", scan.rwset()))
	require.Equal(t, peer.TxValidationCode_PHANTOM_READ_CONFLICT, l.statuses["tx3"].Code)
	require.Nil(t, l.get("summary"))
}

func TestDuplicateTransactionID(t *testing.T) {
	l := newLedger(1)
	commit(t, l, "tx1", "InitLedger")

	_, st := simulate(t, l, "AssetExists", "asset1")
	require.EqualError(t, l.order("tx1", st.rwset()), "duplicate transaction ID tx1")
}

func TestStatusWaitsForCommit(t *testing.T) {
	l := newLedger(2)
	_, st := simulate(t, l, "InitLedger")
	require.NoError(t, l.order("tx1", st.rwset()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := l.status(ctx, "tx1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Empty(t, l.listeners)

	done := make(chan *TxStatus)
	go func() {
		status, err := l.status(context.Background(), "tx1")
		require.NoError(t, err)
		done <- status
	}()
	require.Eventually(t, func() bool {
		l.mutex.Lock()
		defer l.mutex.Unlock()
		return len(l.listeners["tx1"]) == 1
	}, time.Second, 5*time.Millisecond)

	l.cut()
	status := <-done
	require.Equal(t, peer.TxValidationCode_VALID, status.Code)
}

func TestDeleteAsset(t *testing.T) {
	l := newLedger(1)
	commit(t, l, "tx1", "InitLedger")
	commit(t, l, "tx2", "DeleteAsset", "asset2")

	response, _ := simulate(t, l, "AssetExists", "asset2")
	require.Equal(t, "false", string(response.Payload))
	require.Len(t, l.scan("", ""), 5)
}
