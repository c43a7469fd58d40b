/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package middleware_test

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"net/http/httptest"

	"github.com/hyperledger/fabric-asset-gateway/core/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingHandler struct {
	requests []*http.Request
}

func (r *recordingHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.requests = append(r.requests, req)
	w.WriteHeader(http.StatusTeapot)
}

func tagging(tag string, calls *[]string) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			*calls = append(*calls, tag)
			next.ServeHTTP(w, req)
		})
	}
}

var _ = Describe("Chain", func() {
	It("calls middleware in the order provided", func() {
		var calls []string
		handler := &recordingHandler{}
		chain := middleware.NewChain(tagging("first", &calls), tagging("second", &calls))

		resp := httptest.NewRecorder()
		chain.Handler(handler).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(calls).To(Equal([]string{"first", "second"}))
		Expect(handler.requests).To(HaveLen(1))
		Expect(resp.Code).To(Equal(http.StatusTeapot))
	})
})

var _ = Describe("WithRequestID", func() {
	var (
		handler *recordingHandler
		chain   http.Handler
	)

	BeforeEach(func() {
		handler = &recordingHandler{}
		chain = middleware.NewChain(middleware.WithRequestID(func() string { return "generated-id" })).Handler(handler)
	})

	It("generates an ID when the request does not carry one", func() {
		resp := httptest.NewRecorder()
		chain.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(resp.Header().Get("X-Request-Id")).To(Equal("generated-id"))
		Expect(handler.requests).To(HaveLen(1))
		Expect(middleware.RequestID(handler.requests[0].Context())).To(Equal("generated-id"))
	})

	It("propagates an ID provided by the caller", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", "caller-id")
		resp := httptest.NewRecorder()
		chain.ServeHTTP(resp, req)

		Expect(resp.Header().Get("X-Request-Id")).To(Equal("caller-id"))
		Expect(middleware.RequestID(handler.requests[0].Context())).To(Equal("caller-id"))
	})
})

var _ = Describe("RequireCert", func() {
	var (
		handler *recordingHandler
		chain   http.Handler
		req     *http.Request
	)

	BeforeEach(func() {
		handler = &recordingHandler{}
		chain = middleware.RequireCert()(handler)
		req = httptest.NewRequest(http.MethodGet, "/", nil)
	})

	It("rejects requests without TLS", func() {
		resp := httptest.NewRecorder()
		chain.ServeHTTP(resp, req)
		Expect(resp.Code).To(Equal(http.StatusUnauthorized))
		Expect(handler.requests).To(BeEmpty())
	})

	It("rejects requests without verified chains", func() {
		req.TLS = &tls.ConnectionState{}
		resp := httptest.NewRecorder()
		chain.ServeHTTP(resp, req)
		Expect(resp.Code).To(Equal(http.StatusUnauthorized))
	})

	It("passes requests with a verified client certificate", func() {
		req.TLS = &tls.ConnectionState{
			VerifiedChains: [][]*x509.Certificate{{&x509.Certificate{}}},
		}
		resp := httptest.NewRecorder()
		chain.ServeHTTP(resp, req)
		Expect(resp.Code).To(Equal(http.StatusTeapot))
		Expect(handler.requests).To(HaveLen(1))
	})
})
