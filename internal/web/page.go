// Package web renders the interactive calculator form.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/noah-isme/netcost/internal/calculator"
	"github.com/noah-isme/netcost/internal/common"
	"github.com/noah-isme/netcost/internal/obs"
	"github.com/noah-isme/netcost/internal/taxcredit"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

const (
	defaultHeading  = "Calculadora de Custo Líquido com PIS/COFINS"
	defaultSubtitle = "Embuta o crédito de PIS e COFINS no seu custo médio de aquisição."
)

// TokenSource issues the anti-forgery token embedded in the form.
type TokenSource interface {
	Token(w http.ResponseWriter, r *http.Request) string
	FieldName() string
}

// PageConfig holds presentation settings for the page.
type PageConfig struct {
	Title         string
	Heading       string
	Subtitle      string
	Footer        string
	Action        string
	DefaultRegime taxcredit.Regime
}

// Page serves the calculator form and its results.
type Page struct {
	cfg     PageConfig
	service *calculator.Service
	tokens  TokenSource
}

// NewPage constructs a Page. tokens may be nil when CSRF protection is disabled.
func NewPage(cfg PageConfig, service *calculator.Service, tokens TokenSource) *Page {
	if strings.TrimSpace(cfg.Heading) == "" {
		cfg.Heading = defaultHeading
	}
	if strings.TrimSpace(cfg.Title) == "" {
		cfg.Title = cfg.Heading
	}
	if strings.TrimSpace(cfg.Subtitle) == "" {
		cfg.Subtitle = defaultSubtitle
	}
	if strings.TrimSpace(cfg.Action) == "" {
		cfg.Action = "/"
	}
	return &Page{cfg: cfg, service: service, tokens: tokens}
}

type regimeOption struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	Title     string
	Heading   string
	Subtitle  string
	Footer    string
	Action    string
	CSRFField string
	CSRFToken string
	Regimes   []regimeOption
	Amount    string
	Error     string
	Caption   string
	Result    *calculator.Result
}

// Show handles GET /.
func (p *Page) Show(w http.ResponseWriter, r *http.Request) {
	data := p.baseData(w, r, p.cfg.DefaultRegime.Label())
	p.render(w, r, http.StatusOK, data)
}

// Submit handles POST /. A rejected value re-renders the form with the
// error banner and no results.
func (p *Page) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		data := p.baseData(w, r, p.cfg.DefaultRegime.Label())
		data.Error = calculator.MsgInvalidAmount
		p.render(w, r, http.StatusBadRequest, data)
		return
	}
	regime := r.PostForm.Get("regime")
	amount := r.PostForm.Get("gross_cost")

	data := p.baseData(w, r, regime)
	data.Amount = amount

	if p.service == nil {
		data.Error = "Serviço de cálculo indisponível."
		p.render(w, r, http.StatusInternalServerError, data)
		return
	}
	result, err := p.service.CalculateInput(r.Context(), amount, regime)
	if err != nil {
		status := http.StatusInternalServerError
		data.Error = "Não foi possível calcular."
		if appErr, ok := common.AsAppError(err); ok && calculator.IsValidationError(err) {
			status = appErr.HTTPStatus
			data.Error = appErr.Message
		}
		p.render(w, r, status, data)
		return
	}
	data.Result = &result
	p.render(w, r, http.StatusOK, data)
}

func (p *Page) baseData(w http.ResponseWriter, r *http.Request, selected string) pageData {
	data := pageData{
		Title:    p.cfg.Title,
		Heading:  p.cfg.Heading,
		Subtitle: p.cfg.Subtitle,
		Footer:   p.cfg.Footer,
		Action:   p.cfg.Action,
		Caption:  calculator.MsgNetCostHint,
	}
	if p.tokens != nil {
		data.CSRFField = p.tokens.FieldName()
		data.CSRFToken = p.tokens.Token(w, r)
	}
	current, err := taxcredit.ParseRegime(selected)
	if err != nil {
		current = p.cfg.DefaultRegime
	}
	for _, regime := range taxcredit.Regimes() {
		data.Regimes = append(data.Regimes, regimeOption{
			Value:    regime.Label(),
			Label:    regime.Label(),
			Selected: regime == current,
		})
	}
	return data
}

func (p *Page) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		obs.LoggerFrom(r.Context()).Error().Err(err).Msg("render page")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
