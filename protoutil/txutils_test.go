/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package protoutil_test

import (
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-asset-gateway/protoutil"
	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/require"
)

func TestGetPayloads(t *testing.T) {
	var txAction *pb.TransactionAction
	var err error

	// good
	ccActionBytes, _ := proto.Marshal(&pb.ChaincodeAction{
		Results: []byte("results"),
	})
	proposalResponsePayload := &pb.ProposalResponsePayload{
		Extension: ccActionBytes,
	}
	proposalResponseBytes, err := proto.Marshal(proposalResponsePayload)
	require.NoError(t, err)
	ccActionPayload := &pb.ChaincodeActionPayload{
		Action: &pb.ChaincodeEndorsedAction{
			ProposalResponsePayload: proposalResponseBytes,
		},
	}
	ccActionPayloadBytes, _ := proto.Marshal(ccActionPayload)
	txAction = &pb.TransactionAction{
		Payload: ccActionPayloadBytes,
	}
	_, _, err = protoutil.GetPayloads(txAction)
	require.NoError(t, err, "Unexpected error getting payload bytes")

	// nil proposal response extension
	proposalResponseBytes, err = proto.Marshal(&pb.ProposalResponsePayload{
		Extension: nil,
	})
	require.NoError(t, err)
	ccActionPayloadBytes, _ = proto.Marshal(&pb.ChaincodeActionPayload{
		Action: &pb.ChaincodeEndorsedAction{
			ProposalResponsePayload: proposalResponseBytes,
		},
	})
	txAction = &pb.TransactionAction{
		Payload: ccActionPayloadBytes,
	}
	_, _, err = protoutil.GetPayloads(txAction)
	require.Error(t, err, "Expected error with nil proposal response extension")

	// malformed proposal response payload
	ccActionPayloadBytes, _ = proto.Marshal(&pb.ChaincodeActionPayload{
		Action: &pb.ChaincodeEndorsedAction{
			ProposalResponsePayload: []byte("bad payload"),
		},
	})
	txAction = &pb.TransactionAction{
		Payload: ccActionPayloadBytes,
	}
	_, _, err = protoutil.GetPayloads(txAction)
	require.Error(t, err, "Expected error with malformed proposal response payload")

	// malformed proposal response payload extension
	proposalResponseBytes, _ = proto.Marshal(&pb.ProposalResponsePayload{
		Extension: []byte("bad extension"),
	})
	ccActionPayloadBytes, _ = proto.Marshal(&pb.ChaincodeActionPayload{
		Action: &pb.ChaincodeEndorsedAction{
			ProposalResponsePayload: proposalResponseBytes,
		},
	})
	txAction = &pb.TransactionAction{
		Payload: ccActionPayloadBytes,
	}
	_, _, err = protoutil.GetPayloads(txAction)
	require.Error(t, err, "Expected error with malformed proposal response extension")

	// nil proposal response payload extension
	proposalResponseBytes, _ = proto.Marshal(&pb.ProposalResponsePayload{
		ProposalHash: []byte("hash"),
	})
	ccActionPayloadBytes, _ = proto.Marshal(&pb.ChaincodeActionPayload{
		Action: &pb.ChaincodeEndorsedAction{
			ProposalResponsePayload: proposalResponseBytes,
		},
	})
	txAction = &pb.TransactionAction{
		Payload: ccActionPayloadBytes,
	}
	_, _, err = protoutil.GetPayloads(txAction)
	require.Error(t, err, "Expected error with nil proposal response extension")

	// malformed transaction action payload
	txAction = &pb.TransactionAction{
		Payload: []byte("bad payload"),
	}
	_, _, err = protoutil.GetPayloads(txAction)
	require.Error(t, err, "Expected error with malformed transaction action payload")
}

func newTestProposal(t *testing.T) *pb.Proposal {
	prop, _, err := protoutil.CreateChaincodeProposal("mychannel", "basic", "CreateAsset", [][]byte{[]byte("asset1")}, []byte("creator"), map[string][]byte{"secret": []byte("value")})
	require.NoError(t, err)
	return prop
}

func newProposalResponse(t *testing.T, prop *pb.Proposal, endorser []byte, result string) *pb.ProposalResponse {
	hash, err := protoutil.GetProposalHash(prop.Header, prop.Payload)
	require.NoError(t, err)
	prp, err := protoutil.GetBytesProposalResponsePayload(hash, &pb.Response{Status: 200, Payload: []byte(result)}, []byte("rwset"), nil, &pb.ChaincodeID{Name: "basic"})
	require.NoError(t, err)
	return &pb.ProposalResponse{
		Payload:     prp,
		Endorsement: &pb.Endorsement{Endorser: endorser, Signature: []byte("sig")},
		Response:    &pb.Response{Status: 200},
	}
}

func TestDeduplicateEndorsements(t *testing.T) {
	prop := newTestProposal(t)
	responses := []*pb.ProposalResponse{
		newProposalResponse(t, prop, []byte{5, 4, 3}, "result"),
		newProposalResponse(t, prop, []byte{5, 4, 3}, "result"),
	}

	env, err := protoutil.CreateTx(prop, responses...)
	require.NoError(t, err)
	require.Nil(t, env.Signature)

	pl, err := protoutil.UnmarshalPayload(env.Payload)
	require.NoError(t, err)
	tx, err := protoutil.UnmarshalTransaction(pl.Data)
	require.NoError(t, err)
	ccap, err := protoutil.UnmarshalChaincodeActionPayload(tx.Actions[0].Payload)
	require.NoError(t, err)
	require.Len(t, ccap.Action.Endorsements, 1)
	require.Equal(t, []byte{5, 4, 3}, ccap.Action.Endorsements[0].Endorser)

	cpp, err := protoutil.UnmarshalChaincodeProposalPayload(ccap.ChaincodeProposalPayload)
	require.NoError(t, err)
	require.Nil(t, cpp.TransientMap, "transient data must not be recorded")
}

func TestCreateTxFailures(t *testing.T) {
	prop := newTestProposal(t)

	_, err := protoutil.CreateTx(prop)
	require.EqualError(t, err, "at least one proposal response is required")

	bad := newProposalResponse(t, prop, []byte("peer0"), "result")
	bad.Response = &pb.Response{Status: 500, Message: "chaincode failed"}
	_, err = protoutil.CreateTx(prop, bad)
	require.EqualError(t, err, "proposal response was not successful, error code 500, msg chaincode failed")

	_, err = protoutil.CreateTx(prop,
		newProposalResponse(t, prop, []byte("peer0"), "one"),
		newProposalResponse(t, prop, []byte("peer1"), "two"),
	)
	require.EqualError(t, err, "ProposalResponsePayloads do not match")

	_, err = protoutil.CreateTx(&pb.Proposal{Header: []byte("garbage")}, newProposalResponse(t, prop, []byte("peer0"), "one"))
	require.ErrorContains(t, err, "error unmarshalling Header")
}

func TestGetActionFromEnvelopeMsg(t *testing.T) {
	prop := newTestProposal(t)
	env, err := protoutil.CreateTx(prop, newProposalResponse(t, prop, []byte("peer0"), "the result"))
	require.NoError(t, err)

	action, err := protoutil.GetActionFromEnvelopeMsg(env)
	require.NoError(t, err)
	require.Equal(t, []byte("the result"), action.Response.Payload)
	require.Equal(t, "basic", action.ChaincodeId.Name)

	empty := &cb.Envelope{Payload: protoutil.MarshalOrPanic(&cb.Payload{Data: protoutil.MarshalOrPanic(&pb.Transaction{})})}
	_, err = protoutil.GetActionFromEnvelopeMsg(empty)
	require.EqualError(t, err, "at least one TransactionAction required")
}

func TestChannelHeader(t *testing.T) {
	prop := newTestProposal(t)
	env, err := protoutil.CreateTx(prop, newProposalResponse(t, prop, []byte("peer0"), "result"))
	require.NoError(t, err)

	chdr, err := protoutil.ChannelHeader(env)
	require.NoError(t, err)
	require.Equal(t, "mychannel", chdr.ChannelId)
	require.Equal(t, int32(cb.HeaderType_ENDORSER_TRANSACTION), chdr.Type)

	_, err = protoutil.ChannelHeader(nil)
	require.Error(t, err)

	_, err = protoutil.ChannelHeader(&cb.Envelope{Payload: protoutil.MarshalOrPanic(&cb.Payload{})})
	require.EqualError(t, err, "header not set")
}

func TestProposalResponsePayloadRoundTrip(t *testing.T) {
	prp, err := protoutil.GetBytesProposalResponsePayload([]byte("hash"), &pb.Response{Status: 200}, []byte("results"), []byte("event"), &pb.ChaincodeID{Name: "basic"})
	require.NoError(t, err)

	payload, err := protoutil.UnmarshalProposalResponsePayload(prp)
	require.NoError(t, err)
	require.Equal(t, []byte("hash"), payload.ProposalHash)

	action, err := protoutil.UnmarshalChaincodeAction(payload.Extension)
	require.NoError(t, err)
	require.True(t, proto.Equal(&pb.ChaincodeAction{
		Results:     []byte("results"),
		Events:      []byte("event"),
		Response:    &pb.Response{Status: 200},
		ChaincodeId: &pb.ChaincodeID{Name: "basic"},
	}, action))
}
