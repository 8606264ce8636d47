// Package app wires the configuration, storage, prediction and delivery
// components into a runnable service.
package app

import (
	"context"
	"fmt"

	"github.com/autoshop-crm/reminderd/config"
	coremetrics "github.com/autoshop-crm/reminderd/core/metrics"
	"github.com/autoshop-crm/reminderd/core/prediction"
	"github.com/autoshop-crm/reminderd/core/reminder"
	"github.com/autoshop-crm/reminderd/infra/logger"
	"github.com/autoshop-crm/reminderd/infra/metrics"
	"github.com/autoshop-crm/reminderd/infra/notify"
	"github.com/autoshop-crm/reminderd/infra/store/sqlite"
	"github.com/autoshop-crm/reminderd/internal/eventbus"
)

// Service orchestrates the daily reminder sweep.
type Service struct {
	Sweeper *reminder.Sweeper
	Trigger *reminder.DailyTrigger
	Store   *sqlite.Store

	bus         eventbus.EventBus
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	store, err := sqlite.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	predictor, err := prediction.New(store, cfg.Prediction, logger.New("predictor"))
	if err != nil {
		return nil, fmt.Errorf("predictor: %w", err)
	}

	notifier, err := notify.New(cfg.Notifier, logger.New("notifier"))
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(nil)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	sweeper, err := reminder.NewSweeper(store, store, store, notifier, predictor, cfg.Reminder, logg, sink, bus)
	if err != nil {
		return nil, fmt.Errorf("sweeper: %w", err)
	}
	trigger, err := reminder.NewDailyTrigger(cfg.Trigger, logger.New("trigger"))
	if err != nil {
		return nil, fmt.Errorf("trigger: %w", err)
	}

	return &Service{
		Sweeper:     sweeper,
		Trigger:     trigger,
		Store:       store,
		bus:         bus,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Run starts the service and blocks until the context is cancelled or the
// trigger loop stops.
func (s *Service) Run(ctx context.Context) error {
	go s.logEvents(ctx)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	return s.Trigger.Run(ctx, func(ctx context.Context) {
		reports := s.Sweeper.SweepAll(ctx)
		for _, r := range reports {
			s.log.Infof("tenant %s: %d vehicles, %d due, %d sent, %d failed",
				r.TenantID, r.Vehicles, r.Due, r.Sent, r.Failed)
		}
	})
}

func (s *Service) logEvents(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case reminder.ReminderSentEvent:
				s.log.Infof("reminder sent: tenant %s vehicle %s predicted %d km",
					e.Record.TenantID, e.Record.VehicleID, e.Record.PredictedOdometer)
			case reminder.SweepCompletedEvent:
				s.log.Debugf("sweep completed for tenant %s in %s", e.Report.TenantID, e.Report.Duration)
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	return s.Store.Close()
}
