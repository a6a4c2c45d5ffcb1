package loss

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aoia/engine/internal/types"
)

const defaultCurrency = "INR"

const methodology = "deviation-weighted labor cost with industry and type multipliers"

// Recovery fraction assumed when no detection carries severity weight.
const defaultWeightedFixRate = 0.65

// Estimator aggregates per-detection losses into a run-level figure.
type Estimator struct {
	calc   *Calculator
	tables *Tables
	logger zerolog.Logger
}

// NewEstimator loads the weighting tables and builds an estimator.
func NewEstimator(logger zerolog.Logger) (*Estimator, error) {
	tables, err := LoadTables()
	if err != nil {
		return nil, err
	}
	return &Estimator{
		calc:   NewCalculator(tables),
		tables: tables,
		logger: logger.With().Str("component", "loss").Logger(),
	}, nil
}

// Estimate prices every detection and aggregates totals, projections and
// recoverable savings.
func (e *Estimator) Estimate(detections []types.Detection, business types.BusinessParams) types.FinancialLoss {
	currency := business.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	out := types.FinancialLoss{
		Currency:    currency,
		ByType:      make(map[string]float64),
		ByLocation:  make(map[string]float64),
		Methodology: methodology,
		Timestamp:   time.Now(),
	}

	if len(detections) == 0 {
		out.Confidence = 0.5
		return out
	}

	var total, durationSum, confSum float64
	var rateSum, weightSum float64
	for _, d := range detections {
		dl := e.calc.Calculate(d, business)
		total += dl.Loss
		durationSum += dl.DurationMinutes
		confSum += dl.Confidence
		rateSum += e.tables.FixRate(d.Type) * d.SeverityScore
		weightSum += d.SeverityScore

		out.ByType[d.Type] += dl.Loss
		out.ByLocation[d.LocationID] += dl.Loss
		out.Breakdown.BaseLoss += dl.Breakdown.BaseLoss
		out.Breakdown.IndustryAdjustment += dl.Breakdown.IndustryAdjustment
		out.Breakdown.SeverityAdjustment += dl.Breakdown.SeverityAdjustment
	}

	// Savings apply a severity-weighted average of per-type fix rates to
	// the total, not a per-detection loss weighting.
	weightedRate := defaultWeightedFixRate
	if weightSum > 0 {
		weightedRate = rateSum / weightSum
	}

	if durationSum < 1 {
		durationSum = 1
	}
	perMinute := total / durationSum

	out.TotalLoss = total
	out.LossPerHour = perMinute * 60
	out.LossPerDay = total
	out.Projected24h = perMinute * 60 * 24
	out.SavingsIfFixed = total * weightedRate

	// Confidence grows with sample size, capped below certainty.
	conf := confSum/float64(len(detections)) + minFloat(float64(len(detections))/10, 1)*0.1
	if conf > 0.95 {
		conf = 0.95
	}
	out.Confidence = conf

	e.logger.Debug().
		Float64("total_loss", total).
		Str("currency", currency).
		Int("detections", len(detections)).
		Msg("loss estimated")
	return out
}

// Calculate exposes single-detection pricing for callers that need the
// per-item figures, such as recommendation payloads.
func (e *Estimator) Calculate(d types.Detection, business types.BusinessParams) DetectionLoss {
	return e.calc.Calculate(d, business)
}

// FixRate exposes the recovery fraction table.
func (e *Estimator) FixRate(ineffType string) float64 {
	return e.tables.FixRate(ineffType)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
