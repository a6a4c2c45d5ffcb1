package loss

import (
	"math"

	"github.com/aoia/engine/internal/types"
)

const (
	defaultDurationMinutes = 30
	defaultCostPerMinute   = 75
)

// DetectionLoss is the monetary impact of a single detection.
type DetectionLoss struct {
	DetectionID     string              `json:"detection_id"`
	Type            string              `json:"inefficiency_type"`
	LocationID      string              `json:"location_id"`
	Loss            float64             `json:"loss"`
	Breakdown       types.LossBreakdown `json:"breakdown"`
	Confidence      float64             `json:"confidence"`
	DurationMinutes float64             `json:"duration_minutes"`
}

// Calculator prices individual detections against the weighting tables.
type Calculator struct {
	tables *Tables
}

// NewCalculator builds a calculator over the given tables.
func NewCalculator(tables *Tables) *Calculator {
	return &Calculator{tables: tables}
}

// Calculate prices one detection:
//
//	loss = |deviation|/100 * duration * cost_per_minute * industry * weight
//
// The breakdown components always sum to the loss figure.
func (c *Calculator) Calculate(d types.Detection, b types.BusinessParams) DetectionLoss {
	duration := durationFor(d)
	cost := float64(defaultCostPerMinute)
	if b.CostPerHour > 0 {
		cost = b.CostPerHour / 60
	}

	multiplier := c.tables.IndustryMultiplier(b.Industry)
	weight := c.tables.TypeWeight(d.Type)

	base := math.Abs(d.DeviationPercent) / 100 * duration * cost
	industryAdj := base * (multiplier - 1)
	severityAdj := base * multiplier * (weight - 1)

	return DetectionLoss{
		DetectionID:     d.ID,
		Type:            d.Type,
		LocationID:      d.LocationID,
		Loss:            base + industryAdj + severityAdj,
		Breakdown:       types.LossBreakdown{BaseLoss: base, IndustryAdjustment: industryAdj, SeverityAdjustment: severityAdj},
		Confidence:      c.confidence(d, duration),
		DurationMinutes: duration,
	}
}

// durationFor derives the loss accrual window. Time-denominated types
// carry their own duration in the current value; everything else is
// priced over a standard window.
func durationFor(d types.Detection) float64 {
	switch d.Type {
	case types.TypeIdleTime, types.TypeWaitTime:
		if d.CurrentValue != nil && *d.CurrentValue > 0 {
			return *d.CurrentValue
		}
	}
	return defaultDurationMinutes
}

// confidence starts at 0.85 and discounts for large deviations, short
// observation windows and structurally uncertain types. Bounded [0.5, 0.95].
func (c *Calculator) confidence(d types.Detection, duration float64) float64 {
	conf := 0.85

	dev := math.Abs(d.DeviationPercent)
	switch {
	case dev > 50:
		conf -= 0.1
	case dev > 30:
		conf -= 0.05
	}

	switch {
	case duration < 5:
		conf -= 0.1
	case duration < 15:
		conf -= 0.05
	}

	if c.tables.IsHardToQuantify(d.Type) {
		conf -= 0.1
	}

	if conf < 0.5 {
		conf = 0.5
	}
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}
