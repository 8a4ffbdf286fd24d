package calculator

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/noah-isme/netcost/internal/common"
	"github.com/noah-isme/netcost/internal/money"
	"github.com/noah-isme/netcost/internal/taxcredit"
)

// Handler exposes the calculation JSON API.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

type calculationPayload struct {
	GrossCost *float64 `json:"gross_cost"`
	Regime    string   `json:"regime"`
}

type regimeView struct {
	Code        string  `json:"code"`
	Label       string  `json:"label"`
	AppliedRate float64 `json:"applied_rate"`
	RateDisplay string  `json:"applied_rate_display"`
}

// Regimes handles GET /api/v1/regimes.
func (h *Handler) Regimes(w http.ResponseWriter, _ *http.Request) {
	regimes := taxcredit.Regimes()
	out := make([]regimeView, 0, len(regimes))
	for _, r := range regimes {
		out = append(out, regimeView{
			Code:        r.String(),
			Label:       r.Label(),
			AppliedRate: r.Rate(),
			RateDisplay: money.FormatPercent(r.Rate()),
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Create handles POST /api/v1/calculations.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "calculator service not configured", nil)
		return
	}
	var payload calculationPayload
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		details := map[string]any{}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			details["offset"] = syntaxErr.Offset
		}
		if errors.Is(err, io.EOF) {
			details["reason"] = "empty body"
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", details)
		return
	}
	req := Request{Regime: payload.Regime}
	if payload.GrossCost != nil {
		req.GrossCost = *payload.GrossCost
	}
	result, err := h.service.Calculate(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Query handles GET /api/v1/calculations?gross_cost=..&regime=..
// The amount accepts the same formats as the form page.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "calculator service not configured", nil)
		return
	}
	q := r.URL.Query()
	result, err := h.service.CalculateInput(r.Context(), q.Get("gross_cost"), q.Get("regime"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}
