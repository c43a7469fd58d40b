/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package protoutil

import (
	"bytes"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-protos-go/common"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

// CreateTx assembles an unsigned transaction envelope from a proposal and
// its endorsements. All responses must carry the same payload and a
// successful status; duplicate endorsers are collapsed.
func CreateTx(proposal *peer.Proposal, resps ...*peer.ProposalResponse) (*common.Envelope, error) {
	if len(resps) == 0 {
		return nil, errors.New("at least one proposal response is required")
	}

	hdr, err := UnmarshalHeader(proposal.Header)
	if err != nil {
		return nil, err
	}

	pPayl, err := UnmarshalChaincodeProposalPayload(proposal.Payload)
	if err != nil {
		return nil, err
	}

	var a1 []byte
	for n, r := range resps {
		if r.Response.Status < 200 || r.Response.Status >= 400 {
			return nil, errors.Errorf("proposal response was not successful, error code %d, msg %s", r.Response.Status, r.Response.Message)
		}

		if n == 0 {
			a1 = r.Payload
			continue
		}

		if !bytes.Equal(a1, r.Payload) {
			return nil, errors.New("ProposalResponsePayloads do not match")
		}
	}

	// fill endorsements according to their uniqueness
	endorsersUsed := make(map[string]struct{})
	var endorsements []*peer.Endorsement
	for _, r := range resps {
		if r.Endorsement == nil {
			continue
		}
		key := string(r.Endorsement.Endorser)
		if _, used := endorsersUsed[key]; used {
			continue
		}
		endorsements = append(endorsements, r.Endorsement)
		endorsersUsed[key] = struct{}{}
	}

	cea := &peer.ChaincodeEndorsedAction{ProposalResponsePayload: resps[0].Payload, Endorsements: endorsements}

	// the transient map never reaches the ledger
	propPayloadBytes, err := proto.Marshal(&peer.ChaincodeProposalPayload{Input: pPayl.Input})
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling ChaincodeProposalPayload")
	}

	capBytes, err := proto.Marshal(&peer.ChaincodeActionPayload{ChaincodeProposalPayload: propPayloadBytes, Action: cea})
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling ChaincodeActionPayload")
	}

	taa := &peer.TransactionAction{Header: hdr.SignatureHeader, Payload: capBytes}
	txBytes, err := proto.Marshal(&peer.Transaction{Actions: []*peer.TransactionAction{taa}})
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling Transaction")
	}

	paylBytes, err := proto.Marshal(&common.Payload{Header: hdr, Data: txBytes})
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling Payload")
	}

	return &common.Envelope{Payload: paylBytes}, nil
}

// GetPayloads gets the underlying payload objects in a TransactionAction
func GetPayloads(txActions *peer.TransactionAction) (*peer.ChaincodeActionPayload, *peer.ChaincodeAction, error) {
	ccPayload, err := UnmarshalChaincodeActionPayload(txActions.Payload)
	if err != nil {
		return nil, nil, err
	}

	if ccPayload.Action == nil || ccPayload.Action.ProposalResponsePayload == nil {
		return nil, nil, errors.New("no payload in ChaincodeActionPayload")
	}
	pRespPayload, err := UnmarshalProposalResponsePayload(ccPayload.Action.ProposalResponsePayload)
	if err != nil {
		return nil, nil, err
	}

	if pRespPayload.Extension == nil {
		return nil, nil, errors.New("response payload is missing extension")
	}

	respPayload, err := UnmarshalChaincodeAction(pRespPayload.Extension)
	if err != nil {
		return ccPayload, nil, err
	}
	return ccPayload, respPayload, nil
}

// GetActionFromEnvelopeMsg extracts the ChaincodeAction of the first
// transaction action in an endorser transaction envelope.
func GetActionFromEnvelopeMsg(env *common.Envelope) (*peer.ChaincodeAction, error) {
	payl, err := UnmarshalPayload(env.Payload)
	if err != nil {
		return nil, err
	}

	tx, err := UnmarshalTransaction(payl.Data)
	if err != nil {
		return nil, err
	}

	if len(tx.Actions) == 0 {
		return nil, errors.New("at least one TransactionAction required")
	}

	_, respPayload, err := GetPayloads(tx.Actions[0])
	return respPayload, err
}

// ChannelHeader returns the channel header of an envelope.
func ChannelHeader(env *common.Envelope) (*common.ChannelHeader, error) {
	if env == nil {
		return nil, errors.New("Invalid envelope payload. can't be nil")
	}

	payl, err := UnmarshalPayload(env.Payload)
	if err != nil {
		return nil, err
	}

	if payl.Header == nil {
		return nil, errors.New("header not set")
	}

	return UnmarshalChannelHeader(payl.Header.ChannelHeader)
}
