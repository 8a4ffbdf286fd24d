// Package taxcredit derives recoverable PIS/COFINS credits and the net
// acquisition cost of a purchase.
package taxcredit

const (
	// PISRate is the non-cumulative PIS credit rate.
	PISRate = 0.0165
	// COFINSRate is the non-cumulative COFINS credit rate.
	COFINSRate = 0.076
	// CombinedRate is the total credit rate under NonCumulative.
	CombinedRate = PISRate + COFINSRate
)

// CostBreakdown is the result of a single cost calculation.
type CostBreakdown struct {
	GrossCost    float64 `json:"gross_cost"`
	NetCost      float64 `json:"net_cost"`
	PISCredit    float64 `json:"pis_credit"`
	COFINSCredit float64 `json:"cofins_credit"`
	TotalCredit  float64 `json:"total_credit"`
	AppliedRate  float64 `json:"applied_rate"`
}

// Compute returns the credit breakdown for grossCost under regime.
//
// The function performs no validation and never fails; callers reject
// non-positive acquisition values before calling it. Values are not
// rounded.
func Compute(grossCost float64, regime Regime) CostBreakdown {
	if regime != NonCumulative {
		return CostBreakdown{
			GrossCost: grossCost,
			NetCost:   grossCost,
		}
	}
	pis := grossCost * PISRate
	cofins := grossCost * COFINSRate
	total := pis + cofins
	return CostBreakdown{
		GrossCost:    grossCost,
		NetCost:      grossCost - total,
		PISCredit:    pis,
		COFINSCredit: cofins,
		TotalCredit:  total,
		AppliedRate:  CombinedRate,
	}
}
