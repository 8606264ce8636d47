package prediction

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/autoshop-crm/reminderd/core/model"
)

// RateEstimator derives a daily driving rate in km/day from a vehicle's
// odometer-bearing visit history, ordered ascending by completion time.
// ok is false when the history cannot support an estimate.
type RateEstimator interface {
	DailyRate(visits []model.ServiceVisit) (rate float64, ok bool)
}

// NewEstimator builds the estimator selected by the configuration.
func NewEstimator(cfg Config) RateEstimator {
	if cfg.Estimator == EstimatorLeastSquares {
		return LeastSquaresEstimator{MinVisits: cfg.MinVisits}
	}
	return TwoPointEstimator{MinVisits: cfg.MinVisits}
}

// TwoPointEstimator computes the rate from the earliest and latest visit
// only, ignoring intermediate data points. This matches the historical
// behaviour of the reminder engine; see LeastSquaresEstimator for a fit
// over the full history.
type TwoPointEstimator struct {
	MinVisits int
}

// DailyRate returns the average km/day between the boundary visits,
// clamped to zero. Fewer than MinVisits visits, or boundary visits on the
// same calendar day, yield no estimate.
func (e TwoPointEstimator) DailyRate(visits []model.ServiceVisit) (float64, bool) {
	if len(visits) < e.minVisits() {
		return 0, false
	}
	first := visits[0]
	last := visits[len(visits)-1]
	days := wholeDays(first.CompletedAt, last.CompletedAt)
	if days == 0 {
		return 0, false
	}
	rate := float64(*last.Odometer-*first.Odometer) / float64(days)
	if rate < 0 {
		// Odometer regressions (data-entry corrections) must not produce
		// a negative usage rate.
		rate = 0
	}
	return rate, true
}

func (e TwoPointEstimator) minVisits() int {
	if e.MinVisits < 2 {
		return 2
	}
	return e.MinVisits
}

// LeastSquaresEstimator fits an ordinary least squares line through all
// odometer-bearing visits and uses its slope as the daily rate.
type LeastSquaresEstimator struct {
	MinVisits int
}

// DailyRate returns the OLS slope in km/day, clamped to zero. The same
// insufficiency rules as the two-point estimator apply.
func (e LeastSquaresEstimator) DailyRate(visits []model.ServiceVisit) (float64, bool) {
	min := e.MinVisits
	if min < 2 {
		min = 2
	}
	if len(visits) < min {
		return 0, false
	}
	if wholeDays(visits[0].CompletedAt, visits[len(visits)-1].CompletedAt) == 0 {
		return 0, false
	}
	xs := make([]float64, len(visits))
	ys := make([]float64, len(visits))
	origin := visits[0].CompletedAt
	for i, v := range visits {
		xs[i] = v.CompletedAt.Sub(origin).Hours() / 24
		ys[i] = float64(*v.Odometer)
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	if slope < 0 {
		slope = 0
	}
	return slope, true
}

// wholeDays returns the number of whole days between two instants,
// truncating partial days.
func wholeDays(from, to time.Time) int64 {
	return int64(to.Sub(from).Hours() / 24)
}
