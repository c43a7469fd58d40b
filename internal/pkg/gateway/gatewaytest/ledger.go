/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gatewaytest

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-protos-go/ledger/rwset/kvrwset"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/memdb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// TxStatus is the validation outcome of an ordered transaction.
type TxStatus struct {
	TransactionID string
	Code          peer.TxValidationCode
	BlockNumber   uint64
}

type versionedValue struct {
	key     string
	value   []byte
	version *kvrwset.Version
}

type orderedTx struct {
	txID  string
	rwset *kvrwset.KVRWSet
}

// ledger is a single channel world state with MVCC validation. Ordered
// transactions are held until a block is cut.
type ledger struct {
	mutex     sync.Mutex
	state     *memdb.DB
	height    uint64
	batchSize int
	pending   []*orderedTx
	statuses  map[string]*TxStatus
	listeners map[string][]chan *TxStatus
}

func newLedger(batchSize int) *ledger {
	if batchSize < 1 {
		batchSize = 1
	}
	return &ledger{
		state:     memdb.New(comparer.DefaultComparer, 0),
		height:    1, // genesis block
		batchSize: batchSize,
		statuses:  map[string]*TxStatus{},
		listeners: map[string][]chan *TxStatus{},
	}
}

func encodeValue(value []byte, version *kvrwset.Version) []byte {
	encoded := make([]byte, 16+len(value))
	binary.BigEndian.PutUint64(encoded, version.BlockNum)
	binary.BigEndian.PutUint64(encoded[8:], version.TxNum)
	copy(encoded[16:], value)
	return encoded
}

func decodeValue(key string, encoded []byte) *versionedValue {
	return &versionedValue{
		key:   key,
		value: append([]byte(nil), encoded[16:]...),
		version: &kvrwset.Version{
			BlockNum: binary.BigEndian.Uint64(encoded),
			TxNum:    binary.BigEndian.Uint64(encoded[8:]),
		},
	}
}

// get returns nil when the key does not exist.
func (l *ledger) get(key string) *versionedValue {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.getLocked(key)
}

func (l *ledger) getLocked(key string) *versionedValue {
	encoded, err := l.state.Get([]byte(key))
	if err != nil {
		return nil
	}
	return decodeValue(key, encoded)
}

// scan returns the entries in [start, end). An empty bound is open.
func (l *ledger) scan(start, end string) []*versionedValue {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.scanLocked(start, end)
}

func (l *ledger) scanLocked(start, end string) []*versionedValue {
	r := &util.Range{}
	if start != "" {
		r.Start = []byte(start)
	}
	if end != "" {
		r.Limit = []byte(end)
	}

	var results []*versionedValue
	iter := l.state.NewIterator(r)
	defer iter.Release()
	for iter.Next() {
		results = append(results, decodeValue(string(iter.Key()), iter.Value()))
	}
	return results
}

// order queues a transaction for the next block and cuts the block once the
// batch is full.
func (l *ledger) order(txID string, rwset *kvrwset.KVRWSet) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if _, ok := l.statuses[txID]; ok {
		return errors.Errorf("duplicate transaction ID %s", txID)
	}
	for _, tx := range l.pending {
		if tx.txID == txID {
			return errors.Errorf("duplicate transaction ID %s", txID)
		}
	}

	l.pending = append(l.pending, &orderedTx{txID: txID, rwset: rwset})
	if len(l.pending) >= l.batchSize {
		l.cutLocked()
	}
	return nil
}

func (l *ledger) setBatchSize(size int) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if size < 1 {
		size = 1
	}
	l.batchSize = size
	if len(l.pending) >= l.batchSize {
		l.cutLocked()
	}
}

func (l *ledger) cut() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.cutLocked()
}

// cutLocked validates and commits pending transactions in order. A
// transaction sees the writes of valid transactions earlier in the block.
func (l *ledger) cutLocked() {
	if len(l.pending) == 0 {
		return
	}

	blockNumber := l.height
	for txNum, tx := range l.pending {
		code := l.validateLocked(tx.rwset)
		if code == peer.TxValidationCode_VALID {
			l.applyLocked(tx.rwset, &kvrwset.Version{BlockNum: blockNumber, TxNum: uint64(txNum)})
		}

		status := &TxStatus{TransactionID: tx.txID, Code: code, BlockNumber: blockNumber}
		l.statuses[tx.txID] = status
		for _, listener := range l.listeners[tx.txID] {
			listener <- status
		}
		delete(l.listeners, tx.txID)
	}

	l.pending = nil
	l.height++
}

func (l *ledger) validateLocked(rwset *kvrwset.KVRWSet) peer.TxValidationCode {
	for _, read := range rwset.GetReads() {
		var committed *kvrwset.Version
		if vv := l.getLocked(read.GetKey()); vv != nil {
			committed = vv.version
		}
		if !sameVersion(committed, read.GetVersion()) {
			return peer.TxValidationCode_MVCC_READ_CONFLICT
		}
	}

	for _, rqi := range rwset.GetRangeQueriesInfo() {
		current := l.scanLocked(rqi.GetStartKey(), rqi.GetEndKey())
		previous := rqi.GetRawReads().GetKvReads()
		if len(current) != len(previous) {
			return peer.TxValidationCode_PHANTOM_READ_CONFLICT
		}
		for i, vv := range current {
			if vv.key != previous[i].GetKey() || !sameVersion(vv.version, previous[i].GetVersion()) {
				return peer.TxValidationCode_PHANTOM_READ_CONFLICT
			}
		}
	}

	return peer.TxValidationCode_VALID
}

func sameVersion(a, b *kvrwset.Version) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return proto.Equal(a, b)
}

func (l *ledger) applyLocked(rwset *kvrwset.KVRWSet, version *kvrwset.Version) {
	for _, write := range rwset.GetWrites() {
		key := []byte(write.GetKey())
		if write.GetIsDelete() {
			l.state.Delete(key)
			continue
		}
		l.state.Put(key, encodeValue(write.GetValue(), version))
	}
}

// status returns the status of a committed transaction, waiting for the
// transaction to commit if necessary.
func (l *ledger) status(ctx context.Context, txID string) (*TxStatus, error) {
	l.mutex.Lock()
	if status, ok := l.statuses[txID]; ok {
		l.mutex.Unlock()
		return status, nil
	}
	listener := make(chan *TxStatus, 1)
	l.listeners[txID] = append(l.listeners[txID], listener)
	l.mutex.Unlock()

	select {
	case status := <-listener:
		return status, nil
	case <-ctx.Done():
		l.removeListener(txID, listener)
		return nil, ctx.Err()
	}
}

func (l *ledger) removeListener(txID string, listener chan *TxStatus) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	listeners := l.listeners[txID]
	for i, candidate := range listeners {
		if candidate == listener {
			l.listeners[txID] = append(listeners[:i], listeners[i+1:]...)
			break
		}
	}
	if len(l.listeners[txID]) == 0 {
		delete(l.listeners, txID)
	}
}

func (l *ledger) committedStatus(txID string) (*TxStatus, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	status, ok := l.statuses[txID]
	return status, ok
}

func (l *ledger) blockHeight() uint64 {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.height
}

func (l *ledger) transactionCount() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.statuses) + len(l.pending)
}

func (l *ledger) pendingCount() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.pending)
}
