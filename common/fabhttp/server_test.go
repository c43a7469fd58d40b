/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fabhttp_test

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"syscall"

	"github.com/hyperledger/fabric-asset-gateway/common/fabhttp"
	"github.com/hyperledger/fabric-asset-gateway/common/fabhttp/fakes"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tedsuo/ifrit"
)

var _ = Describe("Server", func() {
	var (
		fakeLogger *fakes.Logger
		tempDir    string

		client       *http.Client
		unauthClient *http.Client
		options      fabhttp.Options
		server       *fabhttp.Server
		assets       *fakes.Handler
	)

	get := func(c *http.Client, scheme, path string) (*http.Response, string) {
		resp, err := c.Get(fmt.Sprintf("%s://%s%s", scheme, server.Addr(), path))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, string(body)
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "fabhttp-test")
		Expect(err).NotTo(HaveOccurred())

		generateCertificates(tempDir)
		client = newHTTPClient(tempDir, true)
		unauthClient = newHTTPClient(tempDir, false)

		fakeLogger = &fakes.Logger{}
		assets = &fakes.Handler{Code: http.StatusOK, Text: `{"id":"asset1"}`}
		options = fabhttp.Options{
			Logger:        fakeLogger,
			ListenAddress: "127.0.0.1:0",
			TLS: fabhttp.TLS{
				Enabled:           true,
				CertFile:          filepath.Join(tempDir, "server-cert.pem"),
				KeyFile:           filepath.Join(tempDir, "server-key.pem"),
				ClientCACertFiles: []string{filepath.Join(tempDir, "client-ca.pem")},
			},
		}
		server = fabhttp.NewServer(options)
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
		if server != nil {
			server.Stop()
		}
	})

	It("routes every path below a root handler to it", func() {
		server.RegisterHandler("/", assets, false)
		Expect(server.Start()).To(Succeed())

		for _, path := range []string{"/readAsset/asset1", "/getAllAssets"} {
			resp, body := get(unauthClient, "https", path)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(Equal(`{"id":"asset1"}`))
			Expect(resp.Header.Get("X-Request-Id")).To(HaveLen(32))
		}
	})

	It("keeps a request ID supplied by the caller", func() {
		server.RegisterHandler("/", assets, false)
		Expect(server.Start()).To(Succeed())

		req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("https://%s/getAllAssets", server.Addr()), nil)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("X-Request-Id", "caller-id")
		resp, err := client.Do(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.Header.Get("X-Request-Id")).To(Equal("caller-id"))
	})

	It("answers unregistered paths with not found", func() {
		server.RegisterHandler("/healthz", assets, false)
		Expect(server.Start()).To(Succeed())

		resp, _ := get(client, "https", "/readAsset/asset1")
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("rejects secure handler requests without a verified client certificate", func() {
		server.RegisterHandler("/", assets, true)
		Expect(server.Start()).To(Succeed())

		resp, _ := get(unauthClient, "https", "/getAllAssets")
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

		resp, body := get(client, "https", "/getAllAssets")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(Equal(`{"id":"asset1"}`))
	})

	Context("when TLS is disabled", func() {
		BeforeEach(func() {
			options.TLS.Enabled = false
			server = fabhttp.NewServer(options)
		})

		It("serves plain HTTP", func() {
			server.RegisterHandler("/", assets, false)
			Expect(server.Start()).To(Succeed())

			resp, body := get(client, "http", "/readAsset/asset1")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(Equal(`{"id":"asset1"}`))
		})
	})

	Context("when client certificates are required", func() {
		BeforeEach(func() {
			options.TLS.ClientCertRequired = true
			server = fabhttp.NewServer(options)
		})

		It("fails the handshake of clients without one", func() {
			server.RegisterHandler("/", assets, true)
			Expect(server.Start()).To(Succeed())

			_, err := unauthClient.Get(fmt.Sprintf("https://%s/getAllAssets", server.Addr()))
			Expect(err).To(MatchError(ContainSubstring("remote error: tls:")))

			resp, _ := get(client, "https", "/getAllAssets")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Context("when the server certificate cannot be read", func() {
		BeforeEach(func() {
			options.TLS.CertFile = "missing-cert.pem"
			server = fabhttp.NewServer(options)
		})

		It("fails to start", func() {
			Expect(server.Start()).To(MatchError("open missing-cert.pem: no such file or directory"))
		})

		It("never reports ready as an ifrit process", func() {
			process := ifrit.Invoke(server)
			Consistently(process.Ready()).ShouldNot(BeClosed())
			Eventually(process.Wait()).Should(Receive(MatchError("open missing-cert.pem: no such file or directory")))
		})
	})

	It("runs as an ifrit process until signalled", func() {
		process := ifrit.Invoke(server)
		Eventually(process.Ready()).Should(BeClosed())
		Expect(server.Addr()).NotTo(BeEmpty())

		process.Signal(syscall.SIGTERM)
		Eventually(process.Wait()).Should(Receive(BeNil()))
	})

	It("proxies Log to the provided logger", func() {
		Expect(server.Log("key", "value")).To(Succeed())
		Expect(fakeLogger.WarnCallCount()).To(Equal(1))
		Expect(fakeLogger.WarnArgsForCall(0)).To(Equal([]interface{}{"key", "value"}))
	})
})
