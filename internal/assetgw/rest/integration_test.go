/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/asset"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/rest"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/comm"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway/gatewaytest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Asset API", func() {
	var (
		tempDir    string
		peer       *gatewaytest.Server
		config     asset.SessionConfig
		apiServer  *httptest.Server
		httpClient *http.Client
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "assetgw-rest")
		Expect(err).NotTo(HaveOccurred())

		peer, err = gatewaytest.NewServer(gatewaytest.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(peer.Start()).To(Succeed())

		user, err := peer.NewUser(tempDir)
		Expect(err).NotTo(HaveOccurred())
		rootCert, err := peer.WriteTLSRootCert(tempDir)
		Expect(err).NotTo(HaveOccurred())

		config = asset.SessionConfig{
			Channel:       peer.ChannelID(),
			Chaincode:     peer.ChaincodeName(),
			MspID:         user.MspID,
			PeerEndpoint:  peer.Address(),
			PeerHostAlias: peer.HostAlias(),
			TLSRootCert:   rootCert,
			CertPath:      user.CertPath,
			KeyPath:       user.KeyPath,
			Client:        comm.ClientConfig{},
		}
		httpClient = &http.Client{Timeout: 30 * time.Second}
	})

	JustBeforeEach(func() {
		service := asset.NewService(&asset.PerRequestSessions{Config: config})
		apiServer = httptest.NewServer(rest.NewHandler(service, rest.Options{}))
	})

	AfterEach(func() {
		apiServer.Close()
		peer.Stop()
		os.RemoveAll(tempDir)
	})

	call := func(method, path, body string) (int, string) {
		req, err := http.NewRequest(method, apiServer.URL+path, strings.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		resp, err := httpClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		payload, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp.StatusCode, string(payload)
	}

	message := func(body string) string {
		var response map[string]string
		Expect(json.Unmarshal([]byte(body), &response)).To(Succeed())
		if m, ok := response["message"]; ok {
			return m
		}
		return response["error"]
	}

	initLedger := func() {
		code, body := call(http.MethodPost, "/initLedger", "")
		Expect(code).To(Equal(http.StatusOK), body)
		Expect(message(body)).To(Equal("Ledger initialized successfully"))
	}

	It("creates and reads back an asset", func() {
		initLedger()

		code, body := call(http.MethodPost, "/createAsset", `{"id":"asset7","color":"purple","size":"10","owner":"Alice","value":"500"}`)
		Expect(code).To(Equal(http.StatusOK), body)
		Expect(message(body)).To(Equal("Asset asset7 created successfully"))

		code, body = call(http.MethodGet, "/readAsset/asset7", "")
		Expect(code).To(Equal(http.StatusOK), body)
		Expect(body).To(MatchJSON(`{"id":"asset7","color":"purple","size":"10","owner":"Alice","value":"500"}`))
	})

	It("does not record evaluations as transactions", func() {
		initLedger()
		transactions := peer.Transactions()
		height := peer.Height()

		code, body := call(http.MethodGet, "/getAllAssets", "")
		Expect(code).To(Equal(http.StatusOK), body)
		var assets []asset.Asset
		Expect(json.Unmarshal([]byte(body), &assets)).To(Succeed())
		Expect(assets).To(HaveLen(6))

		Expect(peer.Transactions()).To(Equal(transactions))
		Expect(peer.Height()).To(Equal(height))
	})

	It("transfers an asset and reports the previous owner", func() {
		initLedger()

		code, body := call(http.MethodPost, "/transferAsset", `{"id":"asset1","newOwner":"Ann"}`)
		Expect(code).To(Equal(http.StatusOK), body)
		Expect(message(body)).To(Equal("Asset asset1 transferred from Tomoko to Ann"))

		code, body = call(http.MethodGet, "/readAsset/asset1", "")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"owner":"Ann"`))
	})

	It("commits exactly one of two concurrent transfers", func() {
		initLedger()
		peer.SetBatchSize(2)

		var wg sync.WaitGroup
		codes := make([]int, 2)
		bodies := make([]string, 2)
		for i, owner := range []string{"Ann", "Bob"} {
			wg.Add(1)
			go func(i int, owner string) {
				defer GinkgoRecover()
				defer wg.Done()
				codes[i], bodies[i] = call(http.MethodPost, "/transferAsset", fmt.Sprintf(`{"id":"asset1","newOwner":"%s"}`, owner))
			}(i, owner)
		}
		wg.Wait()

		Expect(codes).To(ConsistOf(http.StatusOK, http.StatusConflict))
		for i, code := range codes {
			if code == http.StatusConflict {
				Expect(message(bodies[i])).To(ContainSubstring("MVCC_READ_CONFLICT"))
			}
		}
	})

	It("reports missing assets as not found", func() {
		code, body := call(http.MethodGet, "/readAsset/asset99", "")
		Expect(code).To(Equal(http.StatusNotFound))
		Expect(message(body)).To(ContainSubstring("the asset asset99 does not exist"))

		code, _ = call(http.MethodDelete, "/deleteAsset/asset99", "")
		Expect(code).To(Equal(http.StatusNotFound))
	})

	It("deletes assets", func() {
		initLedger()

		code, body := call(http.MethodDelete, "/deleteAsset/asset4", "")
		Expect(code).To(Equal(http.StatusOK), body)
		Expect(message(body)).To(Equal("Asset asset4 deleted successfully"))

		code, body = call(http.MethodGet, "/assetExists/asset4", "")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"id":"asset4","exists":false}`))
	})

	Context("when the trust anchor cannot be read", func() {
		BeforeEach(func() {
			config.TLSRootCert = "/nonexistent/ca.crt"
		})

		It("fails with an internal error", func() {
			code, body := call(http.MethodGet, "/getAllAssets", "")
			Expect(code).To(Equal(http.StatusInternalServerError))
			Expect(message(body)).To(ContainSubstring("failed to read TLS root certificate /nonexistent/ca.crt"))
		})
	})

	Context("when the credentials are missing", func() {
		BeforeEach(func() {
			config.CertPath = tempDir + "/empty"
			Expect(os.Mkdir(config.CertPath, 0o755)).To(Succeed())
		})

		It("fails with an internal error", func() {
			code, body := call(http.MethodPost, "/initLedger", "")
			Expect(code).To(Equal(http.StatusInternalServerError))
			Expect(message(body)).To(ContainSubstring("no credential files found"))
			Expect(peer.Transactions()).To(Equal(0))
		})
	})
})
