/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gatewaytest

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hyperledger/fabric-protos-go/ledger/rwset/kvrwset"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

// stub simulates a transaction against committed state and records its
// read-write set. Writes are not visible to later reads in the same
// simulation.
type stub struct {
	ledger *ledger
	reads  []*kvrwset.KVRead
	read   map[string]bool
	writes []*kvrwset.KVWrite
	ranges []*kvrwset.RangeQueryInfo
}

func newStub(l *ledger) *stub {
	return &stub{ledger: l, read: map[string]bool{}}
}

func (s *stub) GetState(key string) []byte {
	vv := s.ledger.get(key)
	if !s.read[key] {
		s.read[key] = true
		read := &kvrwset.KVRead{Key: key}
		if vv != nil {
			read.Version = vv.version
		}
		s.reads = append(s.reads, read)
	}
	if vv == nil {
		return nil
	}
	return vv.value
}

func (s *stub) PutState(key string, value []byte) {
	s.writes = append(s.writes, &kvrwset.KVWrite{Key: key, Value: value})
}

func (s *stub) DelState(key string) {
	s.writes = append(s.writes, &kvrwset.KVWrite{Key: key, IsDelete: true})
}

func (s *stub) GetStateByRange(start, end string) [][]byte {
	results := s.ledger.scan(start, end)

	reads := make([]*kvrwset.KVRead, 0, len(results))
	values := make([][]byte, 0, len(results))
	for _, vv := range results {
		reads = append(reads, &kvrwset.KVRead{Key: vv.key, Version: vv.version})
		values = append(values, vv.value)
	}
	s.ranges = append(s.ranges, &kvrwset.RangeQueryInfo{
		StartKey:     start,
		EndKey:       end,
		ItrExhausted: true,
		ReadsInfo:    &kvrwset.RangeQueryInfo_RawReads{RawReads: &kvrwset.QueryReads{KvReads: reads}},
	})
	return values
}

func (s *stub) rwset() *kvrwset.KVRWSet {
	return &kvrwset.KVRWSet{Reads: s.reads, RangeQueriesInfo: s.ranges, Writes: s.writes}
}

// Asset is the ledger representation used by the basic asset transfer
// chaincode. Fields are in alphabetic order so the JSON is deterministic.
type Asset struct {
	AppraisedValue int    `json:"AppraisedValue"`
	Color          string `json:"Color"`
	ID             string `json:"ID"`
	Owner          string `json:"Owner"`
	Size           int    `json:"Size"`
}

// InitialAssets are written by InitLedger.
var InitialAssets = []Asset{
	{ID: "asset1", Color: "blue", Size: 5, Owner: "Tomoko", AppraisedValue: 300},
	{ID: "asset2", Color: "red", Size: 5, Owner: "Brad", AppraisedValue: 400},
	{ID: "asset3", Color: "green", Size: 10, Owner: "Jin Soo", AppraisedValue: 500},
	{ID: "asset4", Color: "yellow", Size: 10, Owner: "Max", AppraisedValue: 600},
	{ID: "asset5", Color: "black", Size: 15, Owner: "Adriana", AppraisedValue: 700},
	{ID: "asset6", Color: "white", Size: 15, Owner: "Michel", AppraisedValue: 800},
}

type contractFunc func(s *stub, args []string) ([]byte, error)

type contractFunction struct {
	params int
	invoke contractFunc
}

// basicContract implements the asset transfer basic chaincode.
var basicContract = map[string]contractFunction{
	"InitLedger":    {0, initLedger},
	"CreateAsset":   {5, createAsset},
	"ReadAsset":     {1, readAsset},
	"UpdateAsset":   {5, updateAsset},
	"DeleteAsset":   {1, deleteAsset},
	"AssetExists":   {1, assetExists},
	"TransferAsset": {2, transferAsset},
	"GetAllAssets":  {0, getAllAssets},
}

func invokeChaincode(s *stub, input [][]byte) *peer.Response {
	if len(input) == 0 {
		return errorResponse(errors.New("no function name supplied"))
	}
	name := string(input[0])
	fn, ok := basicContract[name]
	if !ok {
		return errorResponse(errors.Errorf("Function %s not found in contract SmartContract", name))
	}
	if len(input)-1 != fn.params {
		return errorResponse(errors.Errorf("Incorrect number of params. Expected %d, received %d", fn.params, len(input)-1))
	}

	args := make([]string, 0, fn.params)
	for _, arg := range input[1:] {
		args = append(args, string(arg))
	}

	payload, err := fn.invoke(s, args)
	if err != nil {
		return errorResponse(err)
	}
	return &peer.Response{Status: 200, Payload: payload}
}

func errorResponse(err error) *peer.Response {
	return &peer.Response{Status: 500, Message: err.Error()}
}

func initLedger(s *stub, _ []string) ([]byte, error) {
	for _, asset := range InitialAssets {
		assetJSON, err := json.Marshal(asset)
		if err != nil {
			return nil, err
		}
		s.PutState(asset.ID, assetJSON)
	}
	return nil, nil
}

func parseAsset(args []string) (*Asset, error) {
	size, err := strconv.Atoi(args[2])
	if err != nil {
		return nil, errors.Errorf("Error managing parameter param2. Conversion error. Value %s was not passed in expected format int", args[2])
	}
	value, err := strconv.Atoi(args[4])
	if err != nil {
		return nil, errors.Errorf("Error managing parameter param4. Conversion error. Value %s was not passed in expected format int", args[4])
	}
	return &Asset{ID: args[0], Color: args[1], Size: size, Owner: args[3], AppraisedValue: value}, nil
}

func createAsset(s *stub, args []string) ([]byte, error) {
	asset, err := parseAsset(args)
	if err != nil {
		return nil, err
	}
	if s.GetState(asset.ID) != nil {
		return nil, fmt.Errorf("the asset %s already exists", asset.ID)
	}
	assetJSON, err := json.Marshal(asset)
	if err != nil {
		return nil, err
	}
	s.PutState(asset.ID, assetJSON)
	return nil, nil
}

func readAsset(s *stub, args []string) ([]byte, error) {
	assetJSON := s.GetState(args[0])
	if assetJSON == nil {
		return nil, fmt.Errorf("the asset %s does not exist", args[0])
	}
	return assetJSON, nil
}

func updateAsset(s *stub, args []string) ([]byte, error) {
	asset, err := parseAsset(args)
	if err != nil {
		return nil, err
	}
	if s.GetState(asset.ID) == nil {
		return nil, fmt.Errorf("the asset %s does not exist", asset.ID)
	}
	assetJSON, err := json.Marshal(asset)
	if err != nil {
		return nil, err
	}
	s.PutState(asset.ID, assetJSON)
	return nil, nil
}

func deleteAsset(s *stub, args []string) ([]byte, error) {
	if s.GetState(args[0]) == nil {
		return nil, fmt.Errorf("the asset %s does not exist", args[0])
	}
	s.DelState(args[0])
	return nil, nil
}

func assetExists(s *stub, args []string) ([]byte, error) {
	return []byte(strconv.FormatBool(s.GetState(args[0]) != nil)), nil
}

// transferAsset returns the previous owner.
func transferAsset(s *stub, args []string) ([]byte, error) {
	assetJSON := s.GetState(args[0])
	if assetJSON == nil {
		return nil, fmt.Errorf("the asset %s does not exist", args[0])
	}
	var asset Asset
	if err := json.Unmarshal(assetJSON, &asset); err != nil {
		return nil, err
	}

	oldOwner := asset.Owner
	asset.Owner = args[1]
	updated, err := json.Marshal(asset)
	if err != nil {
		return nil, err
	}
	s.PutState(args[0], updated)
	return []byte(oldOwner), nil
}

func getAllAssets(s *stub, _ []string) ([]byte, error) {
	assets := []*Asset{}
	for _, value := range s.GetStateByRange("", "") {
		var asset Asset
		if err := json.Unmarshal(value, &asset); err != nil {
			return nil, err
		}
		assets = append(assets, &asset)
	}
	return json.Marshal(assets)
}
