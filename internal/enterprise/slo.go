package enterprise

import (
	"math"
	"time"
)

// Slo is a Service Level Objective definition: the target good-event ratio
// to maintain within a sliding window.
type Slo struct {
	Name           string
	TargetRatio    float64
	WindowSeconds  uint64
}

// SliMeasurement is a single good/bad observation toward an Slo.
type SliMeasurement struct {
	Timestamp time.Time
	Good      bool
}

// SloTracker accumulates SliMeasurements and computes error-budget status
// within the Slo's configured window.
type SloTracker struct {
	Slo          Slo
	measurements []SliMeasurement
}

// NewSloTracker constructs a tracker for slo with no measurements yet.
func NewSloTracker(slo Slo) *SloTracker {
	return &SloTracker{Slo: slo}
}

// Record appends a measurement.
func (t *SloTracker) Record(measurement SliMeasurement) {
	t.measurements = append(t.measurements, measurement)
}

// SloStatus is the current ratio and error-budget standing for an Slo.
type SloStatus struct {
	SloName               string
	CurrentRatio          float64
	TargetRatio           float64
	ErrorBudgetRemaining  float64
	TotalMeasurements     int
	GoodMeasurements      int
	BudgetExhausted       bool
}

// Status computes the tracker's current standing as of now, considering
// only measurements within the trailing window.
func (t *SloTracker) Status(now time.Time) SloStatus {
	windowStart := now.Add(-time.Duration(t.Slo.WindowSeconds) * time.Second)

	var inWindow []SliMeasurement
	for _, m := range t.measurements {
		if !m.Timestamp.Before(windowStart) {
			inWindow = append(inWindow, m)
		}
	}

	total := len(inWindow)
	if total == 0 {
		return SloStatus{
			SloName:              t.Slo.Name,
			CurrentRatio:         1.0,
			TargetRatio:          t.Slo.TargetRatio,
			ErrorBudgetRemaining: 1.0,
		}
	}

	good := 0
	for _, m := range inWindow {
		if m.Good {
			good++
		}
	}
	currentRatio := float64(good) / float64(total)
	maxBad := int(math.Floor((1.0 - t.Slo.TargetRatio) * float64(total)))
	actualBad := total - good

	var budgetRemaining float64
	if maxBad == 0 {
		if actualBad == 0 {
			budgetRemaining = 1.0
		} else {
			budgetRemaining = 0.0
		}
	} else {
		budgetRemaining = 1.0 - (float64(actualBad) / float64(maxBad))
	}
	if budgetRemaining < 0 {
		budgetRemaining = 0
	}

	return SloStatus{
		SloName:              t.Slo.Name,
		CurrentRatio:         currentRatio,
		TargetRatio:          t.Slo.TargetRatio,
		ErrorBudgetRemaining: budgetRemaining,
		TotalMeasurements:    total,
		GoodMeasurements:     good,
		BudgetExhausted:      budgetRemaining <= 0.0,
	}
}
