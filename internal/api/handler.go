package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unitfund/fundd/internal/domain"
	"github.com/unitfund/fundd/internal/issuance"
	"github.com/unitfund/fundd/internal/journal"
	"github.com/unitfund/fundd/internal/redemption"
	"github.com/unitfund/fundd/internal/snapshot"
	"github.com/unitfund/fundd/internal/valuation"
)

// Handler provides HTTP endpoints for the fund API.
type Handler struct {
	fund      *domain.Fund
	valuer    *valuation.Engine
	issuer    *issuance.Engine
	redeemer  *redemption.Engine
	events    journal.Repository
	snapshots *snapshot.Service
}

// NewHandler creates a new API handler.
func NewHandler(fund *domain.Fund, valuer *valuation.Engine, issuer *issuance.Engine, redeemer *redemption.Engine, events journal.Repository, snapshots *snapshot.Service) *Handler {
	return &Handler{
		fund:      fund,
		valuer:    valuer,
		issuer:    issuer,
		redeemer:  redeemer,
		events:    events,
		snapshots: snapshots,
	}
}

// GetFund handles GET /api/v1/fund.
func (h *Handler) GetFund(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.fund.State())
}

// GetGAV handles GET /api/v1/fund/gav.
func (h *Handler) GetGAV(w http.ResponseWriter, r *http.Request) {
	gav, err := h.valuer.GAV(r.Context())
	if err != nil {
		slog.Error("failed to compute GAV", "error", err)
		writeError(w, statusFor(err), "failed to compute GAV")
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"gav": gav})
}

// GetNAV handles GET /api/v1/fund/nav.
func (h *Handler) GetNAV(w http.ResponseWriter, r *http.Request) {
	nav, err := h.valuer.NAV(r.Context())
	if err != nil {
		slog.Error("failed to compute NAV", "error", err)
		writeError(w, statusFor(err), "failed to compute NAV")
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"nav": nav})
}

// Mark handles POST /api/v1/fund/mark.
func (h *Handler) Mark(w http.ResponseWriter, r *http.Request) {
	mark, err := h.valuer.MarkToMarket(r.Context())
	if err != nil {
		slog.Error("failed to mark to market", "error", err)
		writeError(w, statusFor(err), "failed to mark to market")
		return
	}
	writeJSON(w, http.StatusOK, mark)
}

type investRequest struct {
	Investor string `json:"investor"`
	Payment  string `json:"payment"`
	Shares   string `json:"shares"`
}

// Invest handles POST /api/v1/invest.
func (h *Handler) Invest(w http.ResponseWriter, r *http.Request) {
	var req investRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	payment, err := decimal.NewFromString(req.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payment amount")
		return
	}
	shares, err := decimal.NewFromString(req.Shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid share count")
		return
	}

	receipt, err := h.issuer.Invest(r.Context(), req.Investor, payment, shares)
	if err != nil {
		slog.Error("invest failed", "investor", req.Investor, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

type redeemRequest struct {
	Owner  string `json:"owner"`
	Shares string `json:"shares"`
	Amount string `json:"amount"`
}

// Redeem handles POST /api/v1/redeem.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	shares, err := decimal.NewFromString(req.Shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid share count")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	receipt, err := h.redeemer.Redeem(r.Context(), req.Owner, shares, amount)
	if err != nil {
		slog.Error("redeem failed", "owner", req.Owner, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

type redeemInKindRequest struct {
	Owner  string `json:"owner"`
	Shares string `json:"shares"`
}

// RedeemInKind handles POST /api/v1/redeem-in-kind.
func (h *Handler) RedeemInKind(w http.ResponseWriter, r *http.Request) {
	var req redeemInKindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	shares, err := decimal.NewFromString(req.Shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid share count")
		return
	}

	receipt, err := h.redeemer.RedeemInKind(r.Context(), req.Owner, shares)
	if err != nil {
		slog.Error("in-kind redeem failed", "owner", req.Owner, "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// ListEvents handles GET /api/v1/events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100, 1000)

	var (
		events []domain.Event
		err    error
	)
	if party := r.URL.Query().Get("party"); party != "" {
		events, err = h.events.ListByParty(r.Context(), party, limit)
	} else {
		events, err = h.events.List(r.Context(), limit)
	}
	if err != nil {
		slog.Error("failed to list events", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetLatestSnapshot handles GET /api/v1/snapshots/latest.
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.snapshots.GetLatest(r.Context())
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no snapshots found")
			return
		}
		slog.Error("failed to get latest snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSnapshotByDate handles GET /api/v1/snapshots/{date}.
func (h *Handler) GetSnapshotByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := r.PathValue("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	s, err := h.snapshots.GetByDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found for date")
			return
		}
		slog.Error("failed to get snapshot by date", "date", dateStr, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ListSnapshots handles GET /api/v1/snapshots.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 30, 365)

	snapshots, err := h.snapshots.List(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// GenerateSnapshot handles POST /api/v1/snapshots/generate.
func (h *Handler) GenerateSnapshot(w http.ResponseWriter, r *http.Request) {
	rec, err := h.snapshots.Generate(r.Context(), time.Now().UTC())
	if err != nil {
		slog.Error("failed to generate snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate snapshot")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func parseLimit(r *http.Request, def, max int) int {
	limit := def
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, max)
		}
	}
	return limit
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInsufficientPayment),
		errors.Is(err, domain.ErrArithmeticOverflow):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInsufficientLiquidity):
		return http.StatusConflict
	case errors.Is(err, domain.ErrExternalTransfer):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
