package loss

import (
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aoia/engine/internal/types"
)

func newTestEstimator(t *testing.T) *Estimator {
	t.Helper()
	e, err := NewEstimator(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEstimator() error: %v", err)
	}
	return e
}

func TestLoadTables(t *testing.T) {
	tables, err := LoadTables()
	if err != nil {
		t.Fatalf("LoadTables() error: %v", err)
	}
	if got := tables.IndustryMultiplier("HEALTHCARE"); got != 1.5 {
		t.Errorf("HEALTHCARE multiplier = %v, want 1.5", got)
	}
	if got := tables.IndustryMultiplier("UNKNOWN"); got != 1.0 {
		t.Errorf("unknown industry multiplier = %v, want 1.0", got)
	}
	if got := tables.TypeWeight(types.TypeDowntime); got != 2.0 {
		t.Errorf("DOWNTIME weight = %v, want 2.0", got)
	}
	if got := tables.TypeWeight("SOMETHING_NEW"); got != 1.0 {
		t.Errorf("unknown type weight = %v, want 1.0", got)
	}
	if got := tables.FixRate("SOMETHING_NEW"); got != 0.5 {
		t.Errorf("unknown fix rate = %v, want 0.5", got)
	}
	if !tables.IsHardToQuantify(types.TypeUnderutilization) {
		t.Error("UNDERUTILIZATION should be hard to quantify")
	}
}

func TestCalculateLossFormula(t *testing.T) {
	e := newTestEstimator(t)

	d := types.Detection{
		ID:               "det-1",
		Type:             types.TypeOverload,
		LocationID:       "agent-1",
		DeviationPercent: 20,
	}
	business := types.BusinessParams{Industry: "MANUFACTURING", CostPerHour: 4500}

	// 0.2 * 30 min * 75/min * 1.2 industry * 1.1 weight
	dl := e.Calculate(d, business)
	want := 0.2 * 30 * 75 * 1.2 * 1.1
	if math.Abs(dl.Loss-want) > 0.001 {
		t.Errorf("loss = %v, want %v", dl.Loss, want)
	}

	sum := dl.Breakdown.BaseLoss + dl.Breakdown.IndustryAdjustment + dl.Breakdown.SeverityAdjustment
	if math.Abs(sum-dl.Loss) > 1e-9 {
		t.Errorf("breakdown sum %v does not equal loss %v", sum, dl.Loss)
	}
}

func TestCalculateUsesDefaultCost(t *testing.T) {
	e := newTestEstimator(t)

	d := types.Detection{Type: types.TypeQueueOverflow, DeviationPercent: 10}
	dl := e.Calculate(d, types.BusinessParams{})
	// 0.1 * 30 * 75 default cost, GENERAL industry, weight 1.0
	want := 0.1 * 30 * 75.0
	if math.Abs(dl.Loss-want) > 0.001 {
		t.Errorf("loss = %v, want %v", dl.Loss, want)
	}
}

func TestCalculateIdleUsesObservedDuration(t *testing.T) {
	e := newTestEstimator(t)

	idle := 90.0
	d := types.Detection{
		Type:             types.TypeIdleTime,
		DeviationPercent: 90,
		CurrentValue:     &idle,
	}
	dl := e.Calculate(d, types.BusinessParams{})
	if dl.DurationMinutes != 90 {
		t.Errorf("duration = %v, want observed 90", dl.DurationMinutes)
	}
}

func TestConfidenceBounds(t *testing.T) {
	e := newTestEstimator(t)

	tests := []struct {
		name string
		d    types.Detection
		want float64
	}{
		{"clean detection", types.Detection{Type: types.TypeOverload, DeviationPercent: 10}, 0.85},
		{"large deviation", types.Detection{Type: types.TypeOverload, DeviationPercent: 80}, 0.75},
		{"moderate deviation", types.Detection{Type: types.TypeOverload, DeviationPercent: 40}, 0.80},
		{"hard to quantify", types.Detection{Type: types.TypeUnderutilization, DeviationPercent: 10}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dl := e.Calculate(tt.d, types.BusinessParams{})
			if math.Abs(dl.Confidence-tt.want) > 0.001 {
				t.Errorf("confidence = %v, want %v", dl.Confidence, tt.want)
			}
		})
	}
}

func TestConfidenceNeverBelowFloor(t *testing.T) {
	e := newTestEstimator(t)

	short := 2.0
	d := types.Detection{
		Type:             types.TypeUnderutilization,
		DeviationPercent: 90,
		CurrentValue:     &short,
	}
	dl := e.Calculate(d, types.BusinessParams{})
	if dl.Confidence < 0.5 || dl.Confidence > 0.95 {
		t.Errorf("confidence %v out of [0.5, 0.95]", dl.Confidence)
	}
}

func TestEstimateEmpty(t *testing.T) {
	e := newTestEstimator(t)

	out := e.Estimate(nil, types.BusinessParams{})
	if out.TotalLoss != 0 {
		t.Errorf("total = %v, want 0", out.TotalLoss)
	}
	if out.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", out.Confidence)
	}
	if out.Currency != "INR" {
		t.Errorf("currency = %q, want INR default", out.Currency)
	}
}

func TestEstimateAggregates(t *testing.T) {
	e := newTestEstimator(t)

	detections := []types.Detection{
		{ID: "d1", Type: types.TypeOverload, LocationID: "a", DeviationPercent: 20, SeverityScore: 0.6},
		{ID: "d2", Type: types.TypeRework, LocationID: "b", DeviationPercent: 50, SeverityScore: 0.9},
		{ID: "d3", Type: types.TypeOverload, LocationID: "a", DeviationPercent: 10, SeverityScore: 0.3},
	}
	business := types.BusinessParams{Industry: "BPO", Currency: "EUR", CostPerHour: 3600}

	out := e.Estimate(detections, business)

	if out.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", out.Currency)
	}
	if out.TotalLoss <= 0 {
		t.Fatalf("total loss = %v, want > 0", out.TotalLoss)
	}

	var byTypeSum float64
	for _, v := range out.ByType {
		byTypeSum += v
	}
	if math.Abs(byTypeSum-out.TotalLoss) > 1e-6 {
		t.Errorf("by_type sum %v != total %v", byTypeSum, out.TotalLoss)
	}
	if out.ByLocation["a"] <= 0 || out.ByLocation["b"] <= 0 {
		t.Errorf("by_location missing entries: %v", out.ByLocation)
	}

	// 3 detections, 30 min window each.
	wantHourly := out.TotalLoss / 90 * 60
	if math.Abs(out.LossPerHour-wantHourly) > 1e-6 {
		t.Errorf("loss per hour = %v, want %v", out.LossPerHour, wantHourly)
	}
	if math.Abs(out.Projected24h-wantHourly*24) > 1e-6 {
		t.Errorf("projected 24h = %v, want %v", out.Projected24h, wantHourly*24)
	}
	// Severity-weighted fix rate over OVERLOAD (0.55) and REWORK (0.6):
	// (0.55*0.6 + 0.6*0.9 + 0.55*0.3) / (0.6 + 0.9 + 0.3) = 0.575.
	wantSavings := out.TotalLoss * 0.575
	if math.Abs(out.SavingsIfFixed-wantSavings) > 1e-6 {
		t.Errorf("savings = %v, want %v", out.SavingsIfFixed, wantSavings)
	}
	if out.Confidence <= 0.5 || out.Confidence > 0.95 {
		t.Errorf("confidence = %v, want in (0.5, 0.95]", out.Confidence)
	}

	sum := out.Breakdown.BaseLoss + out.Breakdown.IndustryAdjustment + out.Breakdown.SeverityAdjustment
	if math.Abs(sum-out.TotalLoss) > 1e-6 {
		t.Errorf("breakdown sum %v != total %v", sum, out.TotalLoss)
	}
}

func TestEstimateSavingsDefaultRate(t *testing.T) {
	e := newTestEstimator(t)

	// Zero severity everywhere leaves no weight for the average; the
	// default recovery fraction applies to the total.
	detections := []types.Detection{
		{ID: "d1", Type: types.TypeOverload, LocationID: "a", DeviationPercent: 25},
		{ID: "d2", Type: types.TypeRework, LocationID: "b", DeviationPercent: 40},
	}
	business := types.BusinessParams{Industry: "GENERAL", CostPerHour: 3000}

	out := e.Estimate(detections, business)
	if out.TotalLoss <= 0 {
		t.Fatalf("total loss = %v, want > 0", out.TotalLoss)
	}
	want := out.TotalLoss * 0.65
	if math.Abs(out.SavingsIfFixed-want) > 1e-6 {
		t.Errorf("savings = %v, want default-rate %v", out.SavingsIfFixed, want)
	}
}
