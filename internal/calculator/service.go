// Package calculator exposes the net cost calculation to the HTTP layer:
// input validation, display formatting and instrumentation around
// taxcredit.Compute.
package calculator

import (
	"context"
	"errors"
	"math"
	"reflect"

	validator "github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/netcost/internal/common"
	"github.com/noah-isme/netcost/internal/money"
	"github.com/noah-isme/netcost/internal/obs"
	"github.com/noah-isme/netcost/internal/taxcredit"
)

// User facing messages.
const (
	MsgInvalidAmount    = "Por favor, insira um valor de aquisição válido para calcular."
	MsgInvalidRegime    = "Selecione um regime de tributação válido."
	MsgNetCostHint      = "Este é o custo que você deve usar para formar seu preço de venda."
	msgNoticeCumulative = "No Regime Cumulativo, não há apropriação de créditos de PIS/COFINS sobre as compras. " +
		"Portanto, o custo líquido é igual ao custo bruto de aquisição."
)

// Error codes returned in AppErrors.
const (
	CodeInvalidAmount = "INVALID_ACQUISITION_VALUE"
	CodeInvalidRegime = "INVALID_REGIME"
)

// NoticeKind classifies the banner shown next to a result.
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeWarning NoticeKind = "warning"
)

// Request is a calculation request after the amount has been parsed.
type Request struct {
	GrossCost float64 `validate:"gt=0,finite"`
	Regime    string  `validate:"required"`
}

// Display carries the pt-BR rendered values of a breakdown.
type Display struct {
	GrossCost    string `json:"gross_cost"`
	TotalCredit  string `json:"total_credit"`
	NetCost      string `json:"net_cost"`
	CreditDetail string `json:"credit_detail"`
	AppliedRate  string `json:"applied_rate"`
}

// Notice is the informational banner accompanying a result.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
}

// Result is a completed calculation.
type Result struct {
	Regime      taxcredit.Regime        `json:"regime"`
	RegimeLabel string                  `json:"regime_label"`
	Breakdown   taxcredit.CostBreakdown `json:"breakdown"`
	Display     Display                 `json:"display"`
	Notice      Notice                  `json:"notice"`
}

// ServiceConfig configures the Service dependencies.
type ServiceConfig struct {
	// LegacyRegimeFallback treats unrecognised regimes as cumulative
	// instead of rejecting them.
	LegacyRegimeFallback bool
	Metrics              *obs.DomainMetrics
}

// Service validates calculation requests and formats their results.
type Service struct {
	validate *validator.Validate
	lenient  bool
	metrics  *obs.DomainMetrics
	tracer   trace.Tracer
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.Float64 && field.Kind() != reflect.Float32 {
			return true
		}
		f := field.Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return &Service{
		validate: v,
		lenient:  cfg.LegacyRegimeFallback,
		metrics:  cfg.Metrics,
		tracer:   otel.Tracer("netcost/calculator"),
	}
}

// Calculate validates req and returns the credit breakdown with display values.
func (s *Service) Calculate(ctx context.Context, req Request) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "calculator.Calculate")
	defer span.End()
	logger := obs.LoggerFrom(ctx)

	regime, regimeErr := s.resolveRegime(req.Regime)
	span.SetAttributes(attribute.String("calculator.regime", regime.String()))
	if regimeErr == nil {
		// lenient parsing accepts an empty regime
		req.Regime = regime.String()
	}

	if err := s.validate.Struct(req); err != nil {
		if invalidField(err) != "Regime" {
			s.metrics.ObserveCalculation(metricRegime(regime, regimeErr), "invalid", req.GrossCost)
			span.SetStatus(codes.Error, CodeInvalidAmount)
			logger.Debug().Float64("gross_cost", req.GrossCost).Msg("rejected acquisition value")
			return Result{}, common.NewValidationError(CodeInvalidAmount, MsgInvalidAmount, err, map[string]any{"field": "gross_cost"})
		}
		if regimeErr == nil {
			regimeErr = err
		}
	}
	if regimeErr != nil {
		s.metrics.ObserveCalculation("unknown", "invalid", req.GrossCost)
		span.SetStatus(codes.Error, CodeInvalidRegime)
		logger.Debug().Str("regime", req.Regime).Msg("rejected regime")
		return Result{}, common.NewValidationError(CodeInvalidRegime, MsgInvalidRegime, regimeErr, map[string]any{
			"field":   "regime",
			"allowed": regimeCodes(),
		})
	}

	breakdown := taxcredit.Compute(req.GrossCost, regime)
	s.metrics.ObserveCalculation(regime.String(), "ok", req.GrossCost)
	span.SetAttributes(attribute.Float64("calculator.applied_rate", breakdown.AppliedRate))
	logger.Debug().
		Str("regime", regime.String()).
		Float64("gross_cost", breakdown.GrossCost).
		Float64("net_cost", breakdown.NetCost).
		Msg("calculated net cost")

	return buildResult(regime, breakdown), nil
}

// CalculateInput parses a raw amount, as typed in a form or on the command
// line, and calculates it.
func (s *Service) CalculateInput(ctx context.Context, amount, regime string) (Result, error) {
	gross, err := money.ParseAmount(amount)
	if err != nil {
		s.metrics.ObserveCalculation("unknown", "invalid", 0)
		return Result{}, common.NewValidationError(CodeInvalidAmount, MsgInvalidAmount, err, map[string]any{"field": "gross_cost"})
	}
	return s.Calculate(ctx, Request{GrossCost: gross, Regime: regime})
}

// invalidField returns the first struct field rejected by the validator,
// checking the amount before the regime.
func invalidField(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ""
	}
	for _, fe := range verrs {
		if fe.Field() == "GrossCost" {
			return fe.Field()
		}
	}
	if len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}

func (s *Service) resolveRegime(value string) (taxcredit.Regime, error) {
	if s.lenient {
		return taxcredit.ParseRegimeLenient(value), nil
	}
	return taxcredit.ParseRegime(value)
}

func buildResult(regime taxcredit.Regime, b taxcredit.CostBreakdown) Result {
	return Result{
		Regime:      regime,
		RegimeLabel: regime.Label(),
		Breakdown:   b,
		Display: Display{
			GrossCost:   money.FormatBRL(b.GrossCost),
			TotalCredit: money.FormatBRL(b.TotalCredit),
			NetCost:     money.FormatBRL(b.NetCost),
			CreditDetail: "PIS (1.65%): R$ " + money.FormatPlain(b.PISCredit) +
				" | COFINS (7.6%): R$ " + money.FormatPlain(b.COFINSCredit),
			AppliedRate: money.FormatPercent(b.AppliedRate),
		},
		Notice: noticeFor(regime, b),
	}
}

func noticeFor(regime taxcredit.Regime, b taxcredit.CostBreakdown) Notice {
	if regime == taxcredit.NonCumulative {
		return Notice{
			Kind: NoticeInfo,
			Text: "O cálculo considerou a apropriação de um crédito de " + money.FormatPercent(b.AppliedRate) +
				" sobre o custo de aquisição. Esse crédito reduz seu custo efetivo.",
		}
	}
	return Notice{Kind: NoticeWarning, Text: msgNoticeCumulative}
}

func metricRegime(r taxcredit.Regime, err error) string {
	if err != nil {
		return "unknown"
	}
	return r.String()
}

func regimeCodes() []string {
	regimes := taxcredit.Regimes()
	out := make([]string, 0, len(regimes))
	for _, r := range regimes {
		out = append(out, r.String())
	}
	return out
}

// IsValidationError reports whether err is a user input error raised by the Service.
func IsValidationError(err error) bool {
	appErr, ok := common.AsAppError(err)
	if !ok {
		return false
	}
	return appErr.Code == CodeInvalidAmount || appErr.Code == CodeInvalidRegime
}
