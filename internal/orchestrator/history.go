package orchestrator

import (
	"math"
	"sync"
)

const historyCap = 100

// lossHistory is a bounded record of per-run loss totals used for trend
// reporting across runs.
type lossHistory struct {
	mu     sync.Mutex
	values []float64
}

func (h *lossHistory) record(total float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, total)
	if len(h.values) > historyCap {
		h.values = h.values[len(h.values)-historyCap:]
	}
}

// TrendReport compares recent losses against the recorded average.
type TrendReport struct {
	Trend         string  `json:"trend"`
	Average       float64 `json:"average"`
	RecentAverage float64 `json:"recent_average"`
	DataPoints    int     `json:"data_points"`
}

// trend reports "increasing" or "decreasing" when the last ten runs
// deviate more than 10% from the overall average, "stable" otherwise.
func (h *lossHistory) trend() TrendReport {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.values) == 0 {
		return TrendReport{Trend: "no_data"}
	}

	var sum float64
	for _, v := range h.values {
		sum += v
	}
	avg := sum / float64(len(h.values))

	recent := h.values
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	var recentSum float64
	for _, v := range recent {
		recentSum += v
	}
	recentAvg := recentSum / float64(len(recent))

	trend := "stable"
	switch {
	case recentAvg > avg*1.1:
		trend = "increasing"
	case recentAvg < avg*0.9:
		trend = "decreasing"
	}

	return TrendReport{
		Trend:         trend,
		Average:       math.Round(avg*100) / 100,
		RecentAverage: math.Round(recentAvg*100) / 100,
		DataPoints:    len(h.values),
	}
}
