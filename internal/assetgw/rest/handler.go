/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package rest serves the asset operations over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hyperledger/fabric-asset-gateway/common/flogging"
	"github.com/hyperledger/fabric-asset-gateway/common/metrics"
	"github.com/hyperledger/fabric-asset-gateway/common/metrics/disabled"
	"github.com/hyperledger/fabric-asset-gateway/common/semaphore"
	"github.com/hyperledger/fabric-asset-gateway/core/middleware"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/asset"
	"github.com/pkg/errors"
)

const defaultMaxBodyBytes = 1 << 20

//go:generate counterfeiter -o fakes/service.go -fake-name Service . Service

// Service performs the asset operations behind the API.
type Service interface {
	InitLedger(ctx context.Context) (*asset.Receipt, error)
	GetAllAssets(ctx context.Context) ([]asset.Asset, error)
	CreateAsset(ctx context.Context, a asset.Asset) (*asset.Receipt, error)
	ReadAsset(ctx context.Context, id string) (*asset.Asset, error)
	UpdateAsset(ctx context.Context, a asset.Asset) (*asset.Receipt, error)
	DeleteAsset(ctx context.Context, id string) (*asset.Receipt, error)
	AssetExists(ctx context.Context, id string) (bool, error)
	TransferAsset(ctx context.Context, t asset.Transfer) (*asset.Receipt, error)
}

type Options struct {
	Logger  *flogging.FabricLogger
	Metrics metrics.Provider
	// RequestTimeout bounds the ledger work done for one request. Zero
	// leaves the gateway timeouts in charge.
	RequestTimeout time.Duration
	// MaxInflight bounds concurrent requests; excess requests are refused
	// with 503. Zero means no limit.
	MaxInflight  int
	MaxBodyBytes int64
	// AllowedOrigins enables CORS for the listed origins.
	AllowedOrigins []string
	// UniformErrors reports every failure as 500.
	UniformErrors bool
}

// MessageResponse is the body of a successful write.
type MessageResponse struct {
	Message string `json:"message"`
}

// ExistsResponse is the body of an asset existence check.
type ExistsResponse struct {
	ID     string `json:"id"`
	Exists bool   `json:"exists"`
}

// Handler routes API requests to a Service.
type Handler struct {
	service  Service
	options  Options
	logger   *flogging.FabricLogger
	metrics  *Metrics
	inflight semaphore.Semaphore
	router   *mux.Router
	handler  http.Handler
}

func NewHandler(service Service, o Options) *Handler {
	if o.Logger == nil {
		o.Logger = flogging.MustGetLogger("rest")
	}
	if o.Metrics == nil {
		o.Metrics = &disabled.Provider{}
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}

	h := &Handler{
		service:  service,
		options:  o,
		logger:   o.Logger,
		metrics:  NewMetrics(o.Metrics),
		inflight: semaphore.Disabled,
		router:   mux.NewRouter(),
	}
	if o.MaxInflight > 0 {
		h.inflight = semaphore.New(o.MaxInflight)
	}

	h.route("/initLedger", h.initLedger, http.MethodPost)
	h.route("/getAllAssets", h.getAllAssets, http.MethodGet)
	h.route("/createAsset", h.createAsset, http.MethodPost)
	h.route("/readAsset/{id}", h.readAsset, http.MethodGet)
	h.route("/updateAsset", h.updateAsset, http.MethodPost)
	h.route("/transferAsset", h.transferAsset, http.MethodPost)
	h.route("/deleteAsset/{id}", h.deleteAsset, http.MethodDelete)
	h.route("/assetExists/{id}", h.assetExists, http.MethodGet)
	h.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h.sendError(w, http.StatusNotFound, errors.Errorf("no route for %s %s", req.Method, req.URL.Path))
	})
	h.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h.sendError(w, http.StatusMethodNotAllowed, errors.Errorf("method %s not allowed for %s", req.Method, req.URL.Path))
	})

	var handler http.Handler = h.router
	if len(o.AllowedOrigins) > 0 {
		handler = handlers.CORS(
			handlers.AllowedOrigins(o.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(handler)
	}
	h.handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{h.logger}),
		handlers.PrintRecoveryStack(false),
	)(handler)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.handler.ServeHTTP(w, req)
}

type handlerFunc func(ctx context.Context, req *http.Request) (interface{}, error)

func (h *Handler) route(path string, fn handlerFunc, method string) {
	h.router.Handle(path, h.instrument(path, fn)).Methods(method)
}

func (h *Handler) instrument(route string, fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		code := h.serve(w, req, fn)

		h.metrics.RequestsTotal.With("route", route, "code", strconv.Itoa(code)).Add(1)
		h.metrics.RequestDuration.With("route", route).Observe(time.Since(start).Seconds())
	})
}

func (h *Handler) serve(w http.ResponseWriter, req *http.Request, fn handlerFunc) int {
	if !h.inflight.TryAcquire() {
		return h.sendError(w, http.StatusServiceUnavailable, errors.New("too many requests in flight"))
	}
	defer h.inflight.Release()

	ctx := req.Context()
	if h.options.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.options.RequestTimeout)
		defer cancel()
	}

	response, err := fn(ctx, req)
	if err != nil {
		code := StatusCode(err)
		if h.options.UniformErrors {
			code = http.StatusInternalServerError
		}
		h.logger.Warnw("Request failed", "method", req.Method, "path", req.URL.Path, "status", code, "requestID", middleware.RequestID(req.Context()), "error", err)
		return h.sendError(w, code, err)
	}

	return h.send(w, http.StatusOK, response)
}

func (h *Handler) send(w http.ResponseWriter, code int, payload interface{}) int {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Errorf("Failed to encode response: %s", err)
		return h.sendError(w, http.StatusInternalServerError, errors.Wrap(err, "failed to encode response"))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
	return code
}

func (h *Handler) sendError(w http.ResponseWriter, code int, err error) int {
	body, _ := json.Marshal(&ErrorResponse{Error: err.Error()})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
	return code
}

func (h *Handler) decode(req *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(req.Body, h.options.MaxBodyBytes+1))
	if err != nil {
		return errors.Wrapf(asset.ErrInvalidInput, "failed to read request body: %s", err)
	}
	if int64(len(body)) > h.options.MaxBodyBytes {
		return errors.Wrapf(asset.ErrInvalidInput, "request body exceeds %d bytes", h.options.MaxBodyBytes)
	}
	if err := json.Unmarshal(body, v); err != nil {
		if errors.Is(err, asset.ErrInvalidInput) {
			return err
		}
		return errors.Wrapf(asset.ErrInvalidInput, "malformed request body: %s", err)
	}
	return nil
}

func (h *Handler) initLedger(ctx context.Context, _ *http.Request) (interface{}, error) {
	if _, err := h.service.InitLedger(ctx); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: "Ledger initialized successfully"}, nil
}

func (h *Handler) getAllAssets(ctx context.Context, _ *http.Request) (interface{}, error) {
	return h.service.GetAllAssets(ctx)
}

func (h *Handler) createAsset(ctx context.Context, req *http.Request) (interface{}, error) {
	var a asset.Asset
	if err := h.decode(req, &a); err != nil {
		return nil, err
	}
	if _, err := h.service.CreateAsset(ctx, a); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: fmt.Sprintf("Asset %s created successfully", a.ID)}, nil
}

func (h *Handler) readAsset(ctx context.Context, req *http.Request) (interface{}, error) {
	return h.service.ReadAsset(ctx, mux.Vars(req)["id"])
}

func (h *Handler) updateAsset(ctx context.Context, req *http.Request) (interface{}, error) {
	var a asset.Asset
	if err := h.decode(req, &a); err != nil {
		return nil, err
	}
	if _, err := h.service.UpdateAsset(ctx, a); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: fmt.Sprintf("Asset %s updated successfully", a.ID)}, nil
}

func (h *Handler) transferAsset(ctx context.Context, req *http.Request) (interface{}, error) {
	var t asset.Transfer
	if err := h.decode(req, &t); err != nil {
		return nil, err
	}
	receipt, err := h.service.TransferAsset(ctx, t)
	if err != nil {
		return nil, err
	}
	return &MessageResponse{Message: fmt.Sprintf("Asset %s transferred from %s to %s", t.ID, receipt.Result, t.NewOwner)}, nil
}

func (h *Handler) deleteAsset(ctx context.Context, req *http.Request) (interface{}, error) {
	id := mux.Vars(req)["id"]
	if _, err := h.service.DeleteAsset(ctx, id); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: fmt.Sprintf("Asset %s deleted successfully", id)}, nil
}

func (h *Handler) assetExists(ctx context.Context, req *http.Request) (interface{}, error) {
	id := mux.Vars(req)["id"]
	exists, err := h.service.AssetExists(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ExistsResponse{ID: id, Exists: exists}, nil
}

type recoveryLogger struct {
	logger *flogging.FabricLogger
}

func (r recoveryLogger) Println(args ...interface{}) {
	r.logger.Error(args...)
}
