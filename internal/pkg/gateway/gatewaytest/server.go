/*
Copyright 2021 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package gatewaytest provides an in-process Fabric Gateway service backed by
// a simulated ledger running the basic asset transfer chaincode.
package gatewaytest

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-asset-gateway/common/crypto/tlsgen"
	"github.com/hyperledger/fabric-asset-gateway/common/flogging"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/comm"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway/hash"
	"github.com/hyperledger/fabric-asset-gateway/protoutil"
	"github.com/hyperledger/fabric-protos-go/common"
	gp "github.com/hyperledger/fabric-protos-go/gateway"
	"github.com/hyperledger/fabric-protos-go/ledger/rwset"
	"github.com/hyperledger/fabric-protos-go/ledger/rwset/kvrwset"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"
)

var logger = flogging.MustGetLogger("gatewaytest")

// Config describes the simulated peer.
type Config struct {
	ChannelID     string
	ChaincodeName string
	MspID         string
	HostAlias     string
	// BatchSize is the number of ordered transactions committed together.
	BatchSize int
	// Hash digests messages before signature verification.
	Hash hash.Hash
}

func (c Config) withDefaults() Config {
	if c.ChannelID == "" {
		c.ChannelID = "mychannel"
	}
	if c.ChaincodeName == "" {
		c.ChaincodeName = "basic"
	}
	if c.MspID == "" {
		c.MspID = "Org1MSP"
	}
	if c.HostAlias == "" {
		c.HostAlias = "peer0.org1.example.com"
	}
	if c.BatchSize < 1 {
		c.BatchSize = 1
	}
	if c.Hash == nil {
		c.Hash = hash.SHA256
	}
	return c
}

// Server implements the Gateway gRPC service.
type Server struct {
	config    Config
	ledger    *ledger
	tlsCA     tlsgen.CA
	userCA    tlsgen.CA
	peerKey   *ecdsa.PrivateKey
	peerID    []byte
	serverTLS *tlsgen.CertKeyPair

	grpcServer *grpc.Server
	listener   net.Listener

	mutex        sync.Mutex
	delay        time.Duration
	failures     map[string]error
	evaluations  int
	endorsements int
}

// NewServer creates a Server with freshly generated TLS and signing
// material. The ledger starts empty.
func NewServer(config Config) (*Server, error) {
	config = config.withDefaults()

	tlsCA, err := tlsgen.NewCA()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create TLS CA")
	}
	serverTLS, err := tlsCA.NewServerCertKeyPair(config.HostAlias)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create TLS server certificate")
	}
	userCA, err := tlsgen.NewCA()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create user CA")
	}
	peerCert, err := userCA.NewClientCertKeyPair()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create peer identity")
	}
	peerID, err := protoutil.MarshalSerializedIdentity(config.MspID, peerCert.Cert)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:    config,
		ledger:    newLedger(config.BatchSize),
		tlsCA:     tlsCA,
		userCA:    userCA,
		peerKey:   peerCert.Signer.(*ecdsa.PrivateKey),
		peerID:    peerID,
		serverTLS: serverTLS,
		failures:  map[string]error{},
	}, nil
}

// Start listens on a loopback port and serves the Gateway service.
func (s *Server) Start() error {
	cert, err := tls.X509KeyPair(s.serverTLS.Cert, s.serverTLS.Key)
	if err != nil {
		return errors.Wrap(err, "failed to load TLS server key pair")
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}

	serverOpts := append(
		comm.DefaultKeepaliveOptions.ServerKeepaliveOptions(),
		grpc.Creds(credentials.NewTLS(&tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})),
	)
	s.grpcServer = grpc.NewServer(serverOpts...)
	gp.RegisterGatewayServer(s.grpcServer, s)
	s.listener = listener

	go func() {
		if err := s.grpcServer.Serve(listener); err != nil {
			logger.Debugf("gateway test server stopped: %s", err)
		}
	}()
	return nil
}

// Stop terminates the server and all open connections.
func (s *Server) Stop() {
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
}

// Address returns the host:port the server is listening on.
func (s *Server) Address() string {
	return s.listener.Addr().String()
}

func (s *Server) HostAlias() string { return s.config.HostAlias }

func (s *Server) ChannelID() string { return s.config.ChannelID }

func (s *Server) ChaincodeName() string { return s.config.ChaincodeName }

func (s *Server) MspID() string { return s.config.MspID }

// TLSRootCert returns the PEM encoded CA certificate that issued the server
// certificate.
func (s *Server) TLSRootCert() []byte {
	return s.tlsCA.CertBytes()
}

// WriteTLSRootCert writes the TLS CA certificate to dir and returns its path.
func (s *Server) WriteTLSRootCert(dir string) (string, error) {
	path := filepath.Join(dir, "ca.crt")
	if err := os.WriteFile(path, s.TLSRootCert(), 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write TLS root certificate")
	}
	return path, nil
}

// User holds the location of the credentials written by NewUser.
type User struct {
	MspID       string
	Certificate []byte
	CertPath    string
	KeyPath     string
}

// NewUser issues a user certificate and key and writes them below dir in
// the signcerts and keystore layout of an MSP directory.
func (s *Server) NewUser(dir string) (*User, error) {
	pair, err := s.userCA.NewClientCertKeyPair()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to issue user certificate")
	}

	user := &User{
		MspID:       s.config.MspID,
		Certificate: pair.Cert,
		CertPath:    filepath.Join(dir, "signcerts"),
		KeyPath:     filepath.Join(dir, "keystore"),
	}
	for path, contents := range map[string][]byte{
		filepath.Join(user.CertPath, "cert.pem"): pair.Cert,
		filepath.Join(user.KeyPath, "priv_sk"):   pair.Key,
	} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create credential directory")
		}
		if err := os.WriteFile(path, contents, 0o600); err != nil {
			return nil, errors.Wrap(err, "failed to write credentials")
		}
	}
	return user, nil
}

// SetDelay delays every RPC by d, or until the request context is done.
func (s *Server) SetDelay(d time.Duration) {
	s.mutex.Lock()
	s.delay = d
	s.mutex.Unlock()
}

// SetFailure makes the named RPC ("Evaluate", "Endorse", "Submit" or
// "CommitStatus") fail with err. A nil err clears the failure.
func (s *Server) SetFailure(method string, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// SetBatchSize sets the number of ordered transactions committed together.
// Lowering it commits any transactions already waiting.
func (s *Server) SetBatchSize(size int) {
	s.ledger.setBatchSize(size)
}

// Cut commits the transactions waiting for a block.
func (s *Server) Cut() {
	s.ledger.cut()
}

// Height is the number of blocks on the ledger, including genesis.
func (s *Server) Height() uint64 {
	return s.ledger.blockHeight()
}

// Transactions is the number of transactions accepted for ordering.
func (s *Server) Transactions() int {
	return s.ledger.transactionCount()
}

// Pending is the number of ordered transactions waiting for a block.
func (s *Server) Pending() int {
	return s.ledger.pendingCount()
}

func (s *Server) Evaluations() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.evaluations
}

func (s *Server) Endorsements() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.endorsements
}

// TransactionStatus returns the status of a committed transaction.
func (s *Server) TransactionStatus(txID string) (*TxStatus, bool) {
	return s.ledger.committedStatus(txID)
}

// State returns the committed value of key, or nil.
func (s *Server) State(key string) []byte {
	if vv := s.ledger.get(key); vv != nil {
		return vv.value
	}
	return nil
}

// PutAsset writes an asset directly to committed state.
func (s *Server) PutAsset(asset Asset) error {
	st := newStub(s.ledger)
	value, err := json.Marshal(asset)
	if err != nil {
		return err
	}
	st.PutState(asset.ID, value)

	s.ledger.mutex.Lock()
	defer s.ledger.mutex.Unlock()
	s.ledger.applyLocked(st.rwset(), &kvrwset.Version{BlockNum: 0, TxNum: 0})
	return nil
}

func (s *Server) endpointDetail(err error) *gp.ErrorDetail {
	return &gp.ErrorDetail{Address: s.config.HostAlias, MspId: s.config.MspID, Message: err.Error()}
}

func (s *Server) intercept(ctx context.Context, method string) error {
	s.mutex.Lock()
	delay := s.delay
	failure := s.failures[method]
	if method == "Evaluate" {
		s.evaluations++
	}
	if method == "Endorse" {
		s.endorsements++
	}
	s.mutex.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		}
	}
	return failure
}

type unpackedProposal struct {
	proposal  *peer.Proposal
	txID      string
	channelID string
	chaincode string
	creator   []byte
	input     [][]byte
}

func unpackProposal(signedProposal *peer.SignedProposal) (*unpackedProposal, error) {
	if signedProposal == nil {
		return nil, errors.New("a signed proposal is required")
	}
	proposal, err := protoutil.UnmarshalProposal(signedProposal.ProposalBytes)
	if err != nil {
		return nil, err
	}
	header, err := protoutil.UnmarshalHeader(proposal.Header)
	if err != nil {
		return nil, err
	}
	channelHeader, err := protoutil.UnmarshalChannelHeader(header.ChannelHeader)
	if err != nil {
		return nil, err
	}
	signatureHeader, err := protoutil.UnmarshalSignatureHeader(header.SignatureHeader)
	if err != nil {
		return nil, err
	}
	spec, err := protoutil.GetInvocationSpec(proposal)
	if err != nil {
		return nil, err
	}
	if err := protoutil.CheckTxID(channelHeader.TxId, signatureHeader.Nonce, signatureHeader.Creator); err != nil {
		return nil, err
	}

	return &unpackedProposal{
		proposal:  proposal,
		txID:      channelHeader.TxId,
		channelID: channelHeader.ChannelId,
		chaincode: spec.GetChaincodeSpec().GetChaincodeId().GetName(),
		creator:   signatureHeader.Creator,
		input:     spec.GetChaincodeSpec().GetInput().GetArgs(),
	}, nil
}

// verify checks that signature was produced over message by the holder of
// the certificate in creator.
func (s *Server) verify(creator, message, signature []byte) error {
	sid, err := protoutil.UnmarshalSerializedIdentity(creator)
	if err != nil {
		return err
	}
	block, _ := pem.Decode(sid.IdBytes)
	if block == nil {
		return errors.New("creator certificate is not PEM encoded")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return errors.Wrap(err, "failed to parse creator certificate")
	}

	digest := s.config.Hash(message)
	switch pub := cert.PublicKey.(type) {
	case *ecdsa.PublicKey:
		if ecdsa.VerifyASN1(pub, digest, signature) {
			return nil
		}
	case ed25519.PublicKey:
		if ed25519.Verify(pub, digest, signature) {
			return nil
		}
	default:
		return errors.Errorf("unsupported public key type: %T", pub)
	}
	return errors.New("signature verification failed")
}

// checkProposal validates the request envelope of Evaluate and Endorse.
func (s *Server) checkProposal(signedProposal *peer.SignedProposal) (*unpackedProposal, error) {
	up, err := unpackProposal(signedProposal)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "failed to unpack transaction proposal: %s", err)
	}
	if err := s.verify(up.creator, signedProposal.ProposalBytes, signedProposal.Signature); err != nil {
		return nil, status.Errorf(codes.PermissionDenied, "access denied: %s", err)
	}
	if up.channelID != s.config.ChannelID {
		return nil, status.Errorf(codes.Unavailable, "channel '%s' not found", up.channelID)
	}
	return up, nil
}

func (s *Server) simulate(up *unpackedProposal) (*peer.Response, *stub) {
	st := newStub(s.ledger)
	if up.chaincode != s.config.ChaincodeName {
		return errorResponse(errors.Errorf("make sure the chaincode %s has been successfully defined on channel %s and try again: chaincode %s not found", up.chaincode, up.channelID, up.chaincode)), st
	}
	return invokeChaincode(st, up.input), st
}

// Evaluate will invoke the transaction function as specified in the SignedProposal
func (s *Server) Evaluate(ctx context.Context, request *gp.EvaluateRequest) (*gp.EvaluateResponse, error) {
	if request == nil {
		return nil, status.Error(codes.InvalidArgument, "an evaluate request is required")
	}
	if err := s.intercept(ctx, "Evaluate"); err != nil {
		return nil, err
	}
	up, err := s.checkProposal(request.GetProposedTransaction())
	if err != nil {
		return nil, err
	}

	response, _ := s.simulate(up)
	if response.Status < 200 || response.Status >= 400 {
		logger.Debugw("Evaluate call to endorser returned an error response", "chaincode", up.chaincode, "channel", up.channelID, "txid", up.txID, "status", response.Status, "message", response.Message)
		err := fmt.Errorf("error %d returned from chaincode %s on channel %s: %s", response.Status, up.chaincode, up.channelID, response.Message)
		return nil, rpcError(codes.Aborted, "evaluate call to endorser returned an error response, see attached details for more info", s.endpointDetail(err))
	}

	return &gp.EvaluateResponse{Result: response}, nil
}

// Endorse simulates the proposal and returns a transaction envelope carrying
// the endorsement and read-write set, ready to be signed by the client.
func (s *Server) Endorse(ctx context.Context, request *gp.EndorseRequest) (*gp.EndorseResponse, error) {
	if request == nil {
		return nil, status.Error(codes.InvalidArgument, "an endorse request is required")
	}
	if request.GetProposedTransaction() == nil {
		return nil, status.Error(codes.InvalidArgument, "the proposed transaction must contain a signed proposal")
	}
	if err := s.intercept(ctx, "Endorse"); err != nil {
		return nil, err
	}
	up, err := s.checkProposal(request.GetProposedTransaction())
	if err != nil {
		return nil, err
	}

	response, st := s.simulate(up)
	if response.Status < 200 || response.Status >= 400 {
		logger.Debugw("Endorse call to endorser returned failure", "channel", up.channelID, "txid", up.txID, "status", response.Status, "message", response.Message)
		err := fmt.Errorf("error %d, %s", response.Status, response.Message)
		return nil, rpcError(codes.Aborted, "failed to endorse transaction, see attached details for more info", s.endpointDetail(err))
	}

	proposalResponse, err := s.proposalResponse(up, response, st.rwset())
	if err != nil {
		return nil, status.Errorf(codes.Aborted, "failed to create proposal response: %s", err)
	}

	env, err := protoutil.CreateTx(up.proposal, proposalResponse)
	if err != nil {
		return nil, status.Errorf(codes.Aborted, "failed to assemble transaction: %s", err)
	}

	return &gp.EndorseResponse{PreparedTransaction: env}, nil
}

func (s *Server) proposalResponse(up *unpackedProposal, response *peer.Response, kvrw *kvrwset.KVRWSet) (*peer.ProposalResponse, error) {
	nsRWSet, err := proto.Marshal(kvrw)
	if err != nil {
		return nil, err
	}
	txRWSet, err := proto.Marshal(&rwset.TxReadWriteSet{
		DataModel: rwset.TxReadWriteSet_KV,
		NsRwset:   []*rwset.NsReadWriteSet{{Namespace: up.chaincode, Rwset: nsRWSet}},
	})
	if err != nil {
		return nil, err
	}

	proposalHash, err := protoutil.GetProposalHash(up.proposal.Header, up.proposal.Payload)
	if err != nil {
		return nil, err
	}
	payload, err := protoutil.GetBytesProposalResponsePayload(proposalHash, response, txRWSet, nil, &peer.ChaincodeID{Name: up.chaincode})
	if err != nil {
		return nil, err
	}

	signature, err := ecdsa.SignASN1(rand.Reader, s.peerKey, hash.SHA256(append(append([]byte{}, payload...), s.peerID...)))
	if err != nil {
		return nil, err
	}

	return &peer.ProposalResponse{
		Version:     1,
		Response:    response,
		Payload:     payload,
		Endorsement: &peer.Endorsement{Endorser: s.peerID, Signature: signature},
	}, nil
}

// Submit orders a signed transaction. The transaction is validated and
// committed when its block is cut.
func (s *Server) Submit(ctx context.Context, request *gp.SubmitRequest) (*gp.SubmitResponse, error) {
	if request == nil {
		return nil, status.Error(codes.InvalidArgument, "a submit request is required")
	}
	txn := request.GetPreparedTransaction()
	if txn == nil {
		return nil, status.Error(codes.InvalidArgument, "a prepared transaction is required")
	}
	if len(txn.Signature) == 0 {
		return nil, status.Error(codes.InvalidArgument, "prepared transaction must be signed")
	}
	if err := s.intercept(ctx, "Submit"); err != nil {
		return nil, err
	}

	payload, err := protoutil.UnmarshalPayload(txn.Payload)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid transaction payload: %s", err)
	}
	channelHeader, err := protoutil.UnmarshalChannelHeader(payload.GetHeader().GetChannelHeader())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid channel header: %s", err)
	}
	signatureHeader, err := protoutil.UnmarshalSignatureHeader(payload.GetHeader().GetSignatureHeader())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid signature header: %s", err)
	}
	if err := s.verify(signatureHeader.Creator, txn.Payload, txn.Signature); err != nil {
		return nil, status.Errorf(codes.PermissionDenied, "access denied: %s", err)
	}
	if channelHeader.ChannelId != s.config.ChannelID {
		return nil, status.Errorf(codes.Unavailable, "channel '%s' not found", channelHeader.ChannelId)
	}

	kvrw, err := transactionRWSet(txn)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid transaction: %s", err)
	}

	logger.Infow("Sending transaction to orderer", "TxID", channelHeader.TxId, "endpoint", s.config.HostAlias)
	if err := s.ledger.order(channelHeader.TxId, kvrw); err != nil {
		return nil, rpcError(codes.Aborted, "no orderers could successfully process transaction", s.endpointDetail(err))
	}

	return &gp.SubmitResponse{}, nil
}

func transactionRWSet(txn *common.Envelope) (*kvrwset.KVRWSet, error) {
	action, err := protoutil.GetActionFromEnvelopeMsg(txn)
	if err != nil {
		return nil, err
	}
	txRWSet := &rwset.TxReadWriteSet{}
	if err := proto.Unmarshal(action.Results, txRWSet); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal read-write set")
	}
	kvrw := &kvrwset.KVRWSet{}
	for _, ns := range txRWSet.NsRwset {
		if err := proto.Unmarshal(ns.Rwset, kvrw); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal read-write set for namespace %s", ns.Namespace)
		}
	}
	return kvrw, nil
}

// CommitStatus returns the validation code for a specific transaction on a specific channel. If the transaction is
// already committed, the status will be returned immediately; otherwise this call will block and return only when
// the transaction commits or the context is cancelled.
func (s *Server) CommitStatus(ctx context.Context, signedRequest *gp.SignedCommitStatusRequest) (*gp.CommitStatusResponse, error) {
	if signedRequest == nil {
		return nil, status.Error(codes.InvalidArgument, "a commit status request is required")
	}
	if err := s.intercept(ctx, "CommitStatus"); err != nil {
		return nil, err
	}

	request, err := protoutil.UnmarshalCommitStatusRequest(signedRequest.Request)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid status request: %v", err)
	}
	if err := s.verify(request.Identity, signedRequest.Request, signedRequest.Signature); err != nil {
		return nil, status.Errorf(codes.PermissionDenied, "access denied: %s", err)
	}
	if request.ChannelId != s.config.ChannelID {
		return nil, status.Errorf(codes.FailedPrecondition, "channel '%s' not found", request.ChannelId)
	}

	txStatus, err := s.ledger.status(ctx, request.TransactionId)
	if err != nil {
		return nil, status.FromContextError(err).Err()
	}

	return &gp.CommitStatusResponse{
		Result:      txStatus.Code,
		BlockNumber: txStatus.BlockNumber,
	}, nil
}

// ChaincodeEvents is not supported by the simulated peer.
func (s *Server) ChaincodeEvents(*gp.SignedChaincodeEventsRequest, gp.Gateway_ChaincodeEventsServer) error {
	return status.Error(codes.Unimplemented, "chaincode events are not supported")
}

func rpcError(code codes.Code, message string, details ...proto.Message) error {
	st, err := status.New(code, message).WithDetails(details...)
	if err != nil {
		return status.Errorf(code, "%s: %s", message, err)
	}
	return st.Err()
}
