package taxcredit_test

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/netcost/internal/taxcredit"
)

var sampleCosts = []float64{0.01, 1, 9.99, 100, 1000, 1234.56, 50_000, 987_654.32, 1e9}

func TestComputeNonCumulativeScenario(t *testing.T) {
	got := taxcredit.Compute(1000, taxcredit.NonCumulative)

	require.Equal(t, 1000.0, got.GrossCost)
	require.InDelta(t, 16.50, got.PISCredit, 1e-9)
	require.InDelta(t, 76.00, got.COFINSCredit, 1e-9)
	require.InDelta(t, 92.50, got.TotalCredit, 1e-9)
	require.InDelta(t, 907.50, got.NetCost, 1e-9)
	require.Equal(t, taxcredit.PISRate+taxcredit.COFINSRate, got.AppliedRate)
}

func TestComputeCumulativeScenario(t *testing.T) {
	got := taxcredit.Compute(1000, taxcredit.Cumulative)

	require.Equal(t, taxcredit.CostBreakdown{GrossCost: 1000, NetCost: 1000}, got)
}

func TestComputeZeroIsDegenerate(t *testing.T) {
	got := taxcredit.Compute(0, taxcredit.NonCumulative)

	require.Zero(t, got.GrossCost)
	require.Zero(t, got.NetCost)
	require.Zero(t, got.PISCredit)
	require.Zero(t, got.COFINSCredit)
	require.Zero(t, got.TotalCredit)
}

func TestComputeCumulativeKeepsGrossCost(t *testing.T) {
	for _, gross := range sampleCosts {
		got := taxcredit.Compute(gross, taxcredit.Cumulative)
		if got.NetCost != gross {
			t.Fatalf("net cost for %v: got %v", gross, got.NetCost)
		}
		if got.PISCredit != 0 || got.COFINSCredit != 0 || got.TotalCredit != 0 || got.AppliedRate != 0 {
			t.Fatalf("expected no credits for %v, got %+v", gross, got)
		}
	}
}

func TestComputeUnknownRegimeValueHasNoCredit(t *testing.T) {
	got := taxcredit.Compute(500, taxcredit.Regime(42))
	require.Equal(t, 500.0, got.NetCost)
	require.Zero(t, got.TotalCredit)
}

func TestComputeNonCumulativeCreditIsProportional(t *testing.T) {
	for _, gross := range sampleCosts {
		got := taxcredit.Compute(gross, taxcredit.NonCumulative)
		want := gross * taxcredit.CombinedRate
		if !closeRel(got.TotalCredit, want) {
			t.Fatalf("total credit for %v: got %v want %v", gross, got.TotalCredit, want)
		}
		if !closeRel(got.PISCredit, gross*taxcredit.PISRate) || !closeRel(got.COFINSCredit, gross*taxcredit.COFINSRate) {
			t.Fatalf("unexpected per-tax credits for %v: %+v", gross, got)
		}
	}
}

func TestComputeInvariants(t *testing.T) {
	costs := append([]float64{0, -250}, sampleCosts...)
	for _, regime := range taxcredit.Regimes() {
		for _, gross := range costs {
			got := taxcredit.Compute(gross, regime)
			if !closeRel(got.NetCost+got.TotalCredit, gross) {
				t.Fatalf("%s/%v: net+credit=%v", regime, gross, got.NetCost+got.TotalCredit)
			}
			if !closeRel(got.PISCredit+got.COFINSCredit, got.TotalCredit) {
				t.Fatalf("%s/%v: pis+cofins=%v total=%v", regime, gross, got.PISCredit+got.COFINSCredit, got.TotalCredit)
			}
			if got.AppliedRate < 0 || got.AppliedRate >= 1 {
				t.Fatalf("%s/%v: applied rate out of range %v", regime, gross, got.AppliedRate)
			}
		}
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	first := taxcredit.Compute(1234.56, taxcredit.NonCumulative)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, taxcredit.Compute(1234.56, taxcredit.NonCumulative))
	}
}

func TestComputeConcurrentCallers(t *testing.T) {
	want := taxcredit.Compute(777.77, taxcredit.NonCumulative)
	var wg sync.WaitGroup
	results := make([]taxcredit.CostBreakdown, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = taxcredit.Compute(777.77, taxcredit.NonCumulative)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		require.Equal(t, want, got)
	}
}

func closeRel(got, want float64) bool {
	diff := math.Abs(got - want)
	if diff <= 1e-12 {
		return true
	}
	return diff <= 1e-9*math.Max(math.Abs(got), math.Abs(want))
}
