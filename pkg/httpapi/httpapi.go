// Copyright 2025 Certen Protocol
//
// HTTP surface — a thin net/http translator in front of the Lifecycle API
// and Audit Log, in the style of the teacher's handler packages
// (pkg/server/ledger_handlers.go, pkg/server/batch_handlers.go): manual
// path-segment parsing against a stdlib ServeMux, no router framework.

package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/certen/tbtc-relayer/pkg/lifecycle"
	"github.com/certen/tbtc-relayer/pkg/registry"
	"github.com/certen/tbtc-relayer/pkg/store"
)

// Handlers wires the HTTP surface's three resource routes plus /status
// against the Lifecycle API, the Audit Log, and the chain handler registry
// (spec.md §6.3).
type Handlers struct {
	Lifecycle *lifecycle.Service
	Audit     store.AuditStore
	Registry  *registry.Registry
	StartedAt time.Time
}

// NewHandlers constructs Handlers, stamping StartedAt for /status's uptime
// field.
func NewHandlers(lc *lifecycle.Service, audit store.AuditStore, reg *registry.Registry) *Handlers {
	return &Handlers{Lifecycle: lc, Audit: audit, Registry: reg, StartedAt: time.Now()}
}

// Register mounts every route on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/status", h.HandleStatus)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/", h.handleAPI)
}

// handleAPI dispatches "/api/{chainName}/{resource}[/...]" requests. The
// mux is kept to one prefix registration, matching the teacher's
// TrimPrefix-and-split convention rather than a path-templating router.
func (h *Handlers) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/")
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" {
		writeJSONError(w, "chain name and resource are required", http.StatusBadRequest)
		return
	}

	chainName, resource := segments[0], segments[1]
	switch resource {
	case "reveal":
		h.handleReveal(w, r, chainName)
	case "deposit":
		if len(segments) < 3 || segments[2] == "" {
			writeJSONError(w, "deposit id is required", http.StatusBadRequest)
			return
		}
		h.handleDepositStatus(w, r, chainName, segments[2])
	case "audit-logs":
		h.handleAuditLogs(w, r, chainName)
	default:
		writeJSONError(w, "unknown resource "+resource, http.StatusNotFound)
	}
}

// revealRequestBody is the wire shape of POST /api/:chainName/reveal.
type revealRequestBody struct {
	FundingTxHash      string `json:"fundingTxHash"`
	FundingOutputIndex int64  `json:"fundingOutputIndex"`
	Reveal             struct {
		Depositor        string `json:"depositor"`
		BlindingFactor   string `json:"blindingFactor"`
		WalletPubKeyHash string `json:"walletPubKeyHash"`
		RefundPubKeyHash string `json:"refundPubKeyHash"`
		RefundLocktime   string `json:"refundLocktime"`
		ExtraData        string `json:"extraData,omitempty"`
	} `json:"reveal"`
	L2DepositOwner string `json:"l2DepositOwner"`
	L2Sender       string `json:"l2Sender"`
}

func (h *Handlers) handleReveal(w http.ResponseWriter, r *http.Request, chainName string) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body revealRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "malformed JSON body: " + err.Error(),
		})
		return
	}

	req := lifecycle.RevealRequest{
		FundingTxHash:      body.FundingTxHash,
		FundingOutputIndex: body.FundingOutputIndex,
		Reveal: lifecycle.RevealFields{
			Depositor:        body.Reveal.Depositor,
			BlindingFactor:   body.Reveal.BlindingFactor,
			WalletPubKeyHash: body.Reveal.WalletPubKeyHash,
			RefundPubKeyHash: body.Reveal.RefundPubKeyHash,
			RefundLocktime:   body.Reveal.RefundLocktime,
			ExtraData:        body.Reveal.ExtraData,
		},
		L2DepositOwner: body.L2DepositOwner,
		L2Sender:       body.L2Sender,
	}

	result, err := h.Lifecycle.RevealDeposit(r.Context(), chainName, req)
	if err != nil {
		status, payload := revealErrorResponse(err)
		writeJSON(w, status, payload)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"depositId": result.DepositID,
		"message":   "deposit initialized",
		"receipt":   result.Receipt,
	})
}

func revealErrorResponse(err error) (int, map[string]interface{}) {
	lerr, ok := err.(*lifecycle.Error)
	if !ok {
		return http.StatusInternalServerError, map[string]interface{}{"success": false, "error": err.Error()}
	}
	payload := map[string]interface{}{"success": false, "error": lerr.Message}
	if len(lerr.FieldErrors) > 0 {
		details := make(map[string]string, len(lerr.FieldErrors))
		for _, fe := range lerr.FieldErrors {
			details[fe.Field] = fe.Message
		}
		payload["details"] = details
	}
	switch lerr.Kind {
	case lifecycle.KindValidation:
		return http.StatusBadRequest, payload
	case lifecycle.KindUnknownChain:
		return http.StatusNotFound, payload
	default:
		return http.StatusInternalServerError, payload
	}
}

func (h *Handlers) handleDepositStatus(w http.ResponseWriter, r *http.Request, chainName, depositID string) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status, err := h.Lifecycle.GetDepositStatus(r.Context(), chainName, depositID)
	if err != nil {
		lerr, ok := err.(*lifecycle.Error)
		code := http.StatusInternalServerError
		if ok && (lerr.Kind == lifecycle.KindNotFound || lerr.Kind == lifecycle.KindUnknownChain) {
			code = http.StatusNotFound
		}
		writeJSON(w, code, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"depositId": depositID,
		"status":    status,
	})
}

func (h *Handlers) handleAuditLogs(w http.ResponseWriter, r *http.Request, chainOrAll string) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter := store.AuditFilter{}
	if chainOrAll != "all" {
		filter.ChainName = chainOrAll
	}
	if et := r.URL.Query().Get("eventType"); et != "" {
		filter.EventType = store.AuditEventType(et)
	}
	if lim := r.URL.Query().Get("limit"); lim != "" {
		if n, err := strconv.Atoi(lim); err == nil {
			filter.Limit = n
		}
	}

	events, err := h.Audit.Query(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "events": events})
}

// HandleStatus handles GET /status: a minimal health check reporting
// uptime and the set of registered chains.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"uptime":  time.Since(h.StartedAt).String(),
		"chains":  h.Registry.ChainNames(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
