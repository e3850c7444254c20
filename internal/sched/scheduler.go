// Package sched drives the daily recommendation batch: every farmer's crops
// are evaluated, high-priority results trigger an alert, and a trailing
// water-efficiency metric is recorded for each farmer.
package sched

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/furrowlabs/irrigated/internal/metrics"
	"github.com/furrowlabs/irrigated/internal/models"
	"github.com/furrowlabs/irrigated/internal/notify"
)

// Store is the subset of the record store the scheduler needs beyond what
// the engine itself uses.
type Store interface {
	ListFarmers() ([]models.Farmer, error)
	GetCrop(id string) (*models.Crop, error)
	InsertPerformanceMetric(m models.PerformanceMetric) (*models.PerformanceMetric, error)
}

// Generator produces recommendations for one farmer. Satisfied by
// *engine.Engine.
type Generator interface {
	GenerateRecommendations(ctx context.Context, farmerID string) ([]models.IrrigationRecommendation, error)
}

// EfficiencyScorer computes the trailing efficiency percentage. Satisfied by
// *efficiency.Scorer.
type EfficiencyScorer interface {
	WaterEfficiency(farmerID string, start, end time.Time) (float64, error)
}

const efficiencyWindowDays = 30

// Daily batch slot. Early enough that high-priority work scheduled for the
// 06:30 slot the same morning is still actionable.
const batchSpec = "30 5 * * *"

type Scheduler struct {
	store    Store
	engine   Generator
	scorer   EfficiencyScorer
	notifier notify.Notifier
	loc      *time.Location
	cron     *cron.Cron

	now func() time.Time
}

func New(store Store, engine Generator, scorer EfficiencyScorer, notifier notify.Notifier, loc *time.Location) *Scheduler {
	return &Scheduler{
		store:    store,
		engine:   engine,
		scorer:   scorer,
		notifier: notifier,
		loc:      loc,
		cron:     cron.New(cron.WithLocation(loc)),
		now:      time.Now,
	}
}

// Run starts the daily cron and blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(batchSpec, func() {
		if err := s.RunBatch(context.Background()); err != nil {
			log.Printf("sched: batch error: %v", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	<-ctx.Done()
	log.Println("sched: shutting down")
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	return nil
}

// RunBatch evaluates all farmers once. Per-farmer failures are logged and
// the batch continues; the partial results already persisted stand.
func (s *Scheduler) RunBatch(ctx context.Context) error {
	start := s.now()
	defer func() {
		metrics.BatchDuration.Observe(time.Since(start).Seconds())
	}()

	farmers, err := s.store.ListFarmers()
	if err != nil {
		return err
	}

	log.Printf("sched: starting batch for %d farmers", len(farmers))
	for _, farmer := range farmers {
		recs, err := s.engine.GenerateRecommendations(ctx, farmer.ID)
		if err != nil {
			log.Printf("sched: recommendations for farmer %s: %v", farmer.ID, err)
			continue
		}
		log.Printf("sched: farmer %s: %d recommendations", farmer.ID, len(recs))

		for _, rec := range recs {
			if rec.Priority != models.PriorityHigh {
				continue
			}
			s.alert(farmer, rec)
		}

		s.recordEfficiency(farmer.ID)
	}
	return nil
}

func (s *Scheduler) alert(farmer models.Farmer, rec models.IrrigationRecommendation) {
	cropLabel := rec.CropID
	if c, err := s.store.GetCrop(rec.CropID); err == nil && c != nil {
		cropLabel = c.FieldName + " (" + c.CropType + ")"
	}

	if err := s.notifier.SendIrrigationAlert(farmer.Email, farmer.Name, cropLabel, rec.WaterAmount, rec.RecommendedDate); err != nil {
		// The recommendation is already persisted; a failed alert is not
		// rolled back.
		log.Printf("sched: alert for farmer %s: %v", farmer.ID, err)
		metrics.AlertsSentTotal.WithLabelValues("error").Inc()
		return
	}
	metrics.AlertsSentTotal.WithLabelValues("ok").Inc()
}

func (s *Scheduler) recordEfficiency(farmerID string) {
	end := s.now()
	start := end.AddDate(0, 0, -efficiencyWindowDays)

	value, err := s.scorer.WaterEfficiency(farmerID, start, end)
	if err != nil {
		log.Printf("sched: efficiency for farmer %s: %v", farmerID, err)
		return
	}

	if _, err := s.store.InsertPerformanceMetric(models.PerformanceMetric{
		FarmerID:         farmerID,
		MetricType:       "water_efficiency",
		Value:            value,
		Unit:             "percent",
		ComparisonPeriod: "trailing_30d",
		CalculationDate:  end.UTC(),
	}); err != nil {
		log.Printf("sched: record efficiency for farmer %s: %v", farmerID, err)
	}
}
