/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"

	"github.com/hyperledger/fabric-asset-gateway/common/fabhttp"
	"github.com/hyperledger/fabric-asset-gateway/common/fabhttp/fakes"
	"github.com/hyperledger/fabric-asset-gateway/common/metrics/disabled"
	"github.com/hyperledger/fabric-asset-gateway/common/metrics/prometheus"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tedsuo/ifrit"
)

type healthChecker struct {
	err error
}

func (h *healthChecker) HealthCheck(context.Context) error { return h.err }

var _ = Describe("System", func() {
	var (
		fakeLogger *fakes.Logger
		options    Options
		system     *System
		client     *http.Client
	)

	BeforeEach(func() {
		fakeLogger = &fakes.Logger{}
		options = Options{
			Options: fabhttp.Options{
				Logger:        fakeLogger,
				ListenAddress: "127.0.0.1:0",
			},
			Metrics: MetricsOptions{Provider: "disabled"},
			Version: "test-version",
		}
		client = &http.Client{}
	})

	JustBeforeEach(func() {
		system = NewSystem(options)
		Expect(system.Start()).To(Succeed())
	})

	AfterEach(func() {
		system.Stop()
	})

	get := func(path string) (int, string) {
		resp, err := client.Get(fmt.Sprintf("http://%s%s", system.Addr(), path))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp.StatusCode, string(body)
	}

	It("hosts the health check endpoint", func() {
		code, body := get("/healthz")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"status":"OK"`))
	})

	It("reports failing health checkers", func() {
		err := system.RegisterChecker("peer", &healthChecker{err: errors.New("peer unreachable")})
		Expect(err).NotTo(HaveOccurred())

		code, body := get("/healthz")
		Expect(code).To(Equal(http.StatusServiceUnavailable))
		Expect(body).To(ContainSubstring("peer unreachable"))
	})

	It("hosts the version endpoint", func() {
		code, body := get("/version")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"Version":"test-version"`))
	})

	It("hosts the logspec endpoint", func() {
		code, body := get("/logspec")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"spec"`))
	})

	It("uses the disabled metrics provider", func() {
		Expect(system.Provider).To(BeAssignableToTypeOf(&disabled.Provider{}))
		code, _ := get("/metrics")
		Expect(code).To(Equal(http.StatusNotFound))
	})

	Context("when the prometheus provider is configured", func() {
		BeforeEach(func() {
			options.Metrics.Provider = "prometheus"
		})

		It("serves metrics including the version gauge", func() {
			Expect(system.Provider).To(BeAssignableToTypeOf(&prometheus.Provider{}))

			code, body := get("/metrics")
			Expect(code).To(Equal(http.StatusOK))
			Expect(body).To(ContainSubstring(`assetgw_version{version="test-version"} 1`))
		})
	})

	Context("when an unknown provider is configured", func() {
		BeforeEach(func() {
			options.Metrics.Provider = "statsd"
		})

		It("warns and disables metrics", func() {
			Expect(system.Provider).To(BeAssignableToTypeOf(&disabled.Provider{}))
			Expect(fakeLogger.WarnfCallCount()).To(Equal(1))
			msg, args := fakeLogger.WarnfArgsForCall(0)
			Expect(fmt.Sprintf(msg, args...)).To(Equal("Unknown provider type: statsd; metrics disabled"))
			Expect(strings.HasPrefix(msg, "Unknown provider")).To(BeTrue())
		})
	})
})

var _ = Describe("System as an ifrit process", func() {
	It("serves until it is signalled", func() {
		system := NewSystem(Options{
			Options: fabhttp.Options{
				Logger:        &fakes.Logger{},
				ListenAddress: "127.0.0.1:0",
			},
			Metrics: MetricsOptions{Provider: "disabled"},
		})

		process := ifrit.Invoke(system)
		Eventually(process.Ready()).Should(BeClosed())

		resp, err := http.Get(fmt.Sprintf("http://%s/healthz", system.Addr()))
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		process.Signal(syscall.SIGTERM)
		Eventually(process.Wait()).Should(Receive(BeNil()))
	})
})
