/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/hyperledger/fabric-asset-gateway/common/metrics/metricsfakes"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/asset"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/rest"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/rest/fakes"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway"
	"github.com/hyperledger/fabric-protos-go/peer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

var _ = Describe("Handler", func() {
	var (
		service *fakes.Service
		options rest.Options
		handler *rest.Handler
	)

	BeforeEach(func() {
		service = &fakes.Service{}
		options = rest.Options{}
	})

	JustBeforeEach(func() {
		handler = rest.NewHandler(service, options)
	})

	do := func(method, path, body string) (int, map[string]interface{}) {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		Expect(recorder.Header().Get("Content-Type")).To(Equal("application/json"))
		var response map[string]interface{}
		if strings.HasPrefix(recorder.Body.String(), "{") {
			Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
		}
		return recorder.Code, response
	}

	Describe("POST /initLedger", func() {
		It("initializes the ledger", func() {
			service.InitLedgerReturns(&asset.Receipt{TransactionID: "tx1"}, nil)

			code, response := do(http.MethodPost, "/initLedger", "")
			Expect(code).To(Equal(http.StatusOK))
			Expect(response).To(Equal(map[string]interface{}{"message": "Ledger initialized successfully"}))
			Expect(service.InitLedgerCallCount()).To(Equal(1))
		})

		It("rejects other methods", func() {
			code, response := do(http.MethodGet, "/initLedger", "")
			Expect(code).To(Equal(http.StatusMethodNotAllowed))
			Expect(response["error"]).To(Equal("method GET not allowed for /initLedger"))
			Expect(service.InitLedgerCallCount()).To(Equal(0))
		})
	})

	Describe("GET /getAllAssets", func() {
		It("returns the assets as a JSON array", func() {
			service.GetAllAssetsReturns([]asset.Asset{{ID: "asset1", Color: "blue", Size: "5", Owner: "Tomoko", Value: "300"}}, nil)

			req := httptest.NewRequest(http.MethodGet, "/getAllAssets", nil)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(MatchJSON(`[{"id":"asset1","color":"blue","size":"5","owner":"Tomoko","value":"300"}]`))
		})

		It("returns an empty array for an empty ledger", func() {
			service.GetAllAssetsReturns([]asset.Asset{}, nil)

			req := httptest.NewRequest(http.MethodGet, "/getAllAssets", nil)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(MatchJSON(`[]`))
		})
	})

	Describe("POST /createAsset", func() {
		It("passes the asset to the service", func() {
			service.CreateAssetReturns(&asset.Receipt{}, nil)

			code, response := do(http.MethodPost, "/createAsset", `{"id":"asset7","color":"purple","size":10,"owner":"Alice","value":"500"}`)
			Expect(code).To(Equal(http.StatusOK))
			Expect(response["message"]).To(Equal("Asset asset7 created successfully"))

			Expect(service.CreateAssetCallCount()).To(Equal(1))
			_, a := service.CreateAssetArgsForCall(0)
			Expect(a).To(Equal(asset.Asset{ID: "asset7", Color: "purple", Size: "10", Owner: "Alice", Value: "500"}))
		})

		It("rejects a malformed body", func() {
			code, response := do(http.MethodPost, "/createAsset", `{"id":`)
			Expect(code).To(Equal(http.StatusBadRequest))
			Expect(response["error"]).To(HavePrefix("malformed request body: "))
			Expect(service.CreateAssetCallCount()).To(Equal(0))
		})

		It("rejects an invalid field", func() {
			code, response := do(http.MethodPost, "/createAsset", `{"id":"asset7","size":true}`)
			Expect(code).To(Equal(http.StatusBadRequest))
			Expect(response["error"]).To(ContainSubstring("field size"))
		})

		Context("when the body is too large", func() {
			BeforeEach(func() {
				options.MaxBodyBytes = 16
			})

			It("rejects the request", func() {
				code, response := do(http.MethodPost, "/createAsset", `{"id":"asset7","color":"purple"}`)
				Expect(code).To(Equal(http.StatusBadRequest))
				Expect(response["error"]).To(Equal("request body exceeds 16 bytes: invalid input"))
			})
		})

		It("reports an existing asset as a conflict", func() {
			service.CreateAssetReturns(nil, &gateway.Error{
				Kind:    gateway.SubmitError,
				Op:      "endorse",
				Err:     errors.New("rpc error: code = Aborted desc = failed to endorse transaction"),
				Details: nil,
			})
			code, _ := do(http.MethodPost, "/createAsset", `{"id":"asset1"}`)
			Expect(code).To(Equal(http.StatusInternalServerError))

			service.CreateAssetReturns(nil, gateway.NewError(gateway.SubmitError, "endorse", errors.New("the asset asset1 already exists")))
			code, response := do(http.MethodPost, "/createAsset", `{"id":"asset1"}`)
			Expect(code).To(Equal(http.StatusConflict))
			Expect(response["error"]).To(Equal("endorse: the asset asset1 already exists"))
		})
	})

	Describe("GET /readAsset/{id}", func() {
		It("returns the asset", func() {
			service.ReadAssetReturns(&asset.Asset{ID: "asset1", Owner: "Tomoko"}, nil)

			code, response := do(http.MethodGet, "/readAsset/asset1", "")
			Expect(code).To(Equal(http.StatusOK))
			Expect(response).To(Equal(map[string]interface{}{"id": "asset1", "color": "", "size": "", "owner": "Tomoko", "value": ""}))

			_, id := service.ReadAssetArgsForCall(0)
			Expect(id).To(Equal("asset1"))
		})

		It("reports a missing asset as not found", func() {
			service.ReadAssetReturns(nil, gateway.NewError(gateway.EvaluationError, "evaluate", errors.New("the asset asset9 does not exist")))

			code, response := do(http.MethodGet, "/readAsset/asset9", "")
			Expect(code).To(Equal(http.StatusNotFound))
			Expect(response["error"]).To(Equal("evaluate: the asset asset9 does not exist"))
		})

		It("does not match a missing id", func() {
			code, response := do(http.MethodGet, "/readAsset/", "")
			Expect(code).To(Equal(http.StatusNotFound))
			Expect(response["error"]).To(Equal("no route for GET /readAsset/"))
			Expect(service.ReadAssetCallCount()).To(Equal(0))
		})
	})

	Describe("POST /updateAsset", func() {
		It("updates the asset", func() {
			service.UpdateAssetReturns(&asset.Receipt{}, nil)

			code, response := do(http.MethodPost, "/updateAsset", `{"id":"asset2","color":"orange","size":"6","owner":"Brad","value":"450"}`)
			Expect(code).To(Equal(http.StatusOK))
			Expect(response["message"]).To(Equal("Asset asset2 updated successfully"))
		})
	})

	Describe("POST /transferAsset", func() {
		It("reports the previous owner", func() {
			service.TransferAssetReturns(&asset.Receipt{TransactionID: "tx1", Result: []byte("Tomoko")}, nil)

			code, response := do(http.MethodPost, "/transferAsset", `{"id":"asset1","newOwner":"Ann"}`)
			Expect(code).To(Equal(http.StatusOK))
			Expect(response["message"]).To(Equal("Asset asset1 transferred from Tomoko to Ann"))

			_, transfer := service.TransferAssetArgsForCall(0)
			Expect(transfer).To(Equal(asset.Transfer{ID: "asset1", NewOwner: "Ann"}))
		})

		It("reports a rejected transaction as a conflict", func() {
			service.TransferAssetReturns(nil, &gateway.Error{Kind: gateway.CommitRejected, TxID: "abc", Code: peer.TxValidationCode_MVCC_READ_CONFLICT})

			code, response := do(http.MethodPost, "/transferAsset", `{"id":"asset1","newOwner":"Ann"}`)
			Expect(code).To(Equal(http.StatusConflict))
			Expect(response["error"]).To(Equal("transaction abc failed to commit with status code 11 (MVCC_READ_CONFLICT)"))
		})
	})

	Describe("DELETE /deleteAsset/{id}", func() {
		It("deletes the asset", func() {
			service.DeleteAssetReturns(&asset.Receipt{}, nil)

			code, response := do(http.MethodDelete, "/deleteAsset/asset3", "")
			Expect(code).To(Equal(http.StatusOK))
			Expect(response["message"]).To(Equal("Asset asset3 deleted successfully"))
			_, id := service.DeleteAssetArgsForCall(0)
			Expect(id).To(Equal("asset3"))
		})
	})

	Describe("GET /assetExists/{id}", func() {
		It("reports whether the asset exists", func() {
			service.AssetExistsReturns(true, nil)

			code, response := do(http.MethodGet, "/assetExists/asset1", "")
			Expect(code).To(Equal(http.StatusOK))
			Expect(response).To(Equal(map[string]interface{}{"id": "asset1", "exists": true}))
		})
	})

	Context("when uniform errors are configured", func() {
		BeforeEach(func() {
			options.UniformErrors = true
		})

		It("reports every failure as an internal error", func() {
			service.ReadAssetReturns(nil, gateway.NewError(gateway.EvaluationError, "evaluate", errors.New("the asset asset9 does not exist")))
			code, _ := do(http.MethodGet, "/readAsset/asset9", "")
			Expect(code).To(Equal(http.StatusInternalServerError))

			code, _ = do(http.MethodPost, "/transferAsset", `{"id":`)
			Expect(code).To(Equal(http.StatusInternalServerError))
		})
	})

	Context("when the request timeout is configured", func() {
		BeforeEach(func() {
			options.RequestTimeout = 50 * time.Millisecond
		})

		It("bounds the service call", func() {
			service.GetAllAssetsStub = func(ctx context.Context) ([]asset.Asset, error) {
				<-ctx.Done()
				return nil, gateway.NewError(gateway.DeadlineExceeded, "evaluate", ctx.Err())
			}

			code, response := do(http.MethodGet, "/getAllAssets", "")
			Expect(code).To(Equal(http.StatusGatewayTimeout))
			Expect(response["error"]).To(Equal("evaluate: context deadline exceeded"))
		})
	})

	Context("when the number of requests in flight is bounded", func() {
		BeforeEach(func() {
			options.MaxInflight = 1
		})

		It("refuses requests above the limit", func() {
			entered := make(chan struct{})
			release := make(chan struct{})
			service.GetAllAssetsStub = func(context.Context) ([]asset.Asset, error) {
				close(entered)
				<-release
				return []asset.Asset{}, nil
			}

			done := make(chan int)
			go func() {
				recorder := httptest.NewRecorder()
				handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/getAllAssets", nil))
				done <- recorder.Code
			}()
			Eventually(entered).Should(BeClosed())

			code, response := do(http.MethodGet, "/assetExists/asset1", "")
			Expect(code).To(Equal(http.StatusServiceUnavailable))
			Expect(response["error"]).To(Equal("too many requests in flight"))

			close(release)
			Eventually(done).Should(Receive(Equal(http.StatusOK)))
		})
	})

	Context("when CORS origins are configured", func() {
		BeforeEach(func() {
			options.AllowedOrigins = []string{"https://assets.example.com"}
		})

		It("sets the allowed origin", func() {
			service.AssetExistsReturns(false, nil)
			req := httptest.NewRequest(http.MethodGet, "/assetExists/asset1", nil)
			req.Header.Set("Origin", "https://assets.example.com")
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://assets.example.com"))
		})
	})

	It("recovers from a panicking service", func() {
		service.InitLedgerStub = func(context.Context) (*asset.Receipt, error) { panic("boom") }

		req := httptest.NewRequest(http.MethodPost, "/initLedger", nil)
		recorder := httptest.NewRecorder()
		Expect(func() { handler.ServeHTTP(recorder, req) }).NotTo(Panic())
		Expect(recorder.Code).To(Equal(http.StatusInternalServerError))
	})

	Context("when metrics are enabled", func() {
		var (
			provider  *metricsfakes.Provider
			counter   *metricsfakes.Counter
			histogram *metricsfakes.Histogram
		)

		BeforeEach(func() {
			counter = &metricsfakes.Counter{}
			counter.WithReturns(counter)
			histogram = &metricsfakes.Histogram{}
			histogram.WithReturns(histogram)
			provider = &metricsfakes.Provider{}
			provider.NewCounterReturns(counter)
			provider.NewHistogramReturns(histogram)
			options.Metrics = provider
		})

		It("records requests by route and status", func() {
			service.ReadAssetReturns(nil, gateway.NewError(gateway.ConnectionError, "connect", errors.New("refused")))

			code, _ := do(http.MethodGet, "/readAsset/asset1", "")
			Expect(code).To(Equal(http.StatusServiceUnavailable))

			Expect(counter.WithCallCount()).To(Equal(1))
			Expect(counter.WithArgsForCall(0)).To(Equal([]string{"route", "/readAsset/{id}", "code", "503"}))
			Expect(counter.AddArgsForCall(0)).To(Equal(1.0))
			Expect(histogram.WithArgsForCall(0)).To(Equal([]string{"route", "/readAsset/{id}"}))
			Expect(histogram.ObserveCallCount()).To(Equal(1))
		})
	})
})
