package prediction

import (
	"context"
	"fmt"

	"github.com/autoshop-crm/reminderd/core/logger"
	"github.com/autoshop-crm/reminderd/core/model"
)

// VisitSource provides the vehicle and visit lookups the predictor needs.
// It is implemented by the fleet data store.
type VisitSource interface {
	// GetVehicle returns the vehicle, or found=false when unknown.
	GetVehicle(ctx context.Context, vehicleID string) (model.Vehicle, bool, error)
	// ListServiceVisits returns the vehicle's odometer-bearing visits
	// ordered ascending by completion time.
	ListServiceVisits(ctx context.Context, vehicleID string) ([]model.ServiceVisit, error)
}

// Assessment is the outcome of a service-due evaluation.
type Assessment struct {
	Due bool
	// PredictedOdometer is the projected reading at the horizon.
	PredictedOdometer int64
	// DueOdometer is the next service threshold for the vehicle.
	DueOdometer int64
}

// Predictor projects odometer readings from visit history.
type Predictor struct {
	source    VisitSource
	cfg       Config
	estimator RateEstimator
	log       logger.Logger
}

// New creates a Predictor. The configuration is validated after defaults
// are applied.
func New(source VisitSource, cfg Config, log logger.Logger) (*Predictor, error) {
	if source == nil {
		return nil, fmt.Errorf("prediction: nil visit source")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("prediction config: %w", err)
	}
	return &Predictor{
		source:    source,
		cfg:       cfg,
		estimator: NewEstimator(cfg),
		log:       log,
	}, nil
}

// AverageDailyDistance estimates the vehicle's usage rate in km/day.
// ok is false when the history cannot support an estimate; err reports
// store failures only.
func (p *Predictor) AverageDailyDistance(ctx context.Context, vehicleID string) (float64, bool, error) {
	visits, err := p.source.ListServiceVisits(ctx, vehicleID)
	if err != nil {
		return 0, false, fmt.Errorf("list visits for %s: %w", vehicleID, err)
	}
	qualifying := visits[:0:0]
	for _, v := range visits {
		if v.HasOdometer() {
			qualifying = append(qualifying, v)
		}
	}
	model.SortVisitsByCompletion(qualifying)
	rate, ok := p.estimator.DailyRate(qualifying)
	return rate, ok, nil
}

// ProjectOdometer predicts the vehicle's reading daysAhead days from now.
// ok is false when the vehicle is unknown or no rate estimate exists.
func (p *Predictor) ProjectOdometer(ctx context.Context, vehicleID string, daysAhead int) (int64, bool, error) {
	vehicle, found, err := p.source.GetVehicle(ctx, vehicleID)
	if err != nil {
		return 0, false, fmt.Errorf("get vehicle %s: %w", vehicleID, err)
	}
	if !found {
		return 0, false, nil
	}
	rate, ok, err := p.AverageDailyDistance(ctx, vehicleID)
	if err != nil || !ok {
		return 0, false, err
	}
	// rate is non-negative, so int64 truncation floors the projection.
	return vehicle.CurrentOdometer + int64(rate*float64(daysAhead)), true, nil
}

// ServiceDue projects the vehicle's mileage over the configured horizon
// and compares it against the next service threshold. ok is false when no
// prediction is possible or the vehicle has no service interval.
func (p *Predictor) ServiceDue(ctx context.Context, vehicleID string) (Assessment, bool, error) {
	vehicle, found, err := p.source.GetVehicle(ctx, vehicleID)
	if err != nil {
		return Assessment{}, false, fmt.Errorf("get vehicle %s: %w", vehicleID, err)
	}
	if !found || !vehicle.HasServiceInterval() {
		return Assessment{}, false, nil
	}
	predicted, ok, err := p.ProjectOdometer(ctx, vehicleID, p.cfg.HorizonDays)
	if err != nil || !ok {
		return Assessment{}, false, err
	}
	threshold := vehicle.NextServiceThreshold()
	return Assessment{
		Due:               predicted >= threshold,
		PredictedOdometer: predicted,
		DueOdometer:       threshold,
	}, true, nil
}

// HorizonDays exposes the configured projection horizon.
func (p *Predictor) HorizonDays() int { return p.cfg.HorizonDays }
