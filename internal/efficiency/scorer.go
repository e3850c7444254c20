// Package efficiency aggregates irrigation history into water-use scores:
// a theoretical-need-vs-actual-use percentage shown to farmers, and a
// normalized yield-per-gallon score used as an internal benchmark.
package efficiency

import (
	"fmt"
	"math"
	"time"

	"github.com/furrowlabs/irrigated/internal/crop"
	"github.com/furrowlabs/irrigated/internal/models"
)

// Store is the subset of the record store the scorer reads. All operations
// are read-only aggregations.
type Store interface {
	GetCropsByFarmer(farmerID string) ([]models.Crop, error)
	GetIrrigationLogs(cropID string) ([]models.IrrigationLog, error)
	GetIrrigationLogsByFarmer(farmerID string) ([]models.IrrigationLog, error)
	GetCropYields(cropID string) ([]models.CropYield, error)
	GetCropYieldsByFarmer(farmerID string) ([]models.CropYield, error)
}

type Config struct {
	AssumedDailyET     float64 // inches/day used for theoretical need
	GallonsPerAcreInch float64
	ScoreScale         float64 // yield-per-gallon normalization factor
	NeutralScore       float64 // returned when no history exists
}

func DefaultConfig() Config {
	return Config{
		AssumedDailyET:     0.25,
		GallonsPerAcreInch: 27154,
		ScoreScale:         1000,
		NeutralScore:       0.5,
	}
}

type Scorer struct {
	store Store
	cfg   Config
}

func New(store Store, cfg Config) *Scorer {
	return &Scorer{store: store, cfg: cfg}
}

// WaterEfficiency compares theoretical crop water need against actual usage
// over a date range, as a 0-100 percentage. Zero actual usage is defined as
// 100: with no usage there is no inefficiency to measure.
func (s *Scorer) WaterEfficiency(farmerID string, start, end time.Time) (float64, error) {
	crops, err := s.store.GetCropsByFarmer(farmerID)
	if err != nil {
		return 0, fmt.Errorf("crops for farmer %s: %w", farmerID, err)
	}

	days := math.Ceil(end.Sub(start).Hours() / 24)
	var totalUsed, totalNeeded float64

	for _, c := range crops {
		logs, err := s.store.GetIrrigationLogs(c.ID)
		if err != nil {
			return 0, fmt.Errorf("logs for crop %s: %w", c.ID, err)
		}
		for _, l := range logs {
			if l.IrrigationDate.Before(start) || l.IrrigationDate.After(end) {
				continue
			}
			totalUsed += l.WaterAmount
		}

		dailyNeed := crop.Coefficient(c.CropType, c.GrowthStage) * s.cfg.AssumedDailyET
		totalNeeded += dailyNeed * days * c.Acres * s.cfg.GallonsPerAcreInch
	}

	if totalUsed == 0 {
		return 100, nil
	}
	return math.Min(100, totalNeeded/totalUsed*100), nil
}

// Score is the yield-per-gallon metric normalized to [0, 1]. With no yield
// or irrigation history it returns the neutral default rather than an error.
// If cropID is empty the score spans all of the farmer's crops.
func (s *Scorer) Score(farmerID, cropID string) (float64, error) {
	var (
		logs   []models.IrrigationLog
		yields []models.CropYield
		err    error
	)
	if cropID != "" {
		logs, err = s.store.GetIrrigationLogs(cropID)
		if err != nil {
			return 0, fmt.Errorf("logs for crop %s: %w", cropID, err)
		}
		yields, err = s.store.GetCropYields(cropID)
		if err != nil {
			return 0, fmt.Errorf("yields for crop %s: %w", cropID, err)
		}
	} else {
		logs, err = s.store.GetIrrigationLogsByFarmer(farmerID)
		if err != nil {
			return 0, fmt.Errorf("logs for farmer %s: %w", farmerID, err)
		}
		yields, err = s.store.GetCropYieldsByFarmer(farmerID)
		if err != nil {
			return 0, fmt.Errorf("yields for farmer %s: %w", farmerID, err)
		}
	}

	if len(logs) == 0 || len(yields) == 0 {
		return s.cfg.NeutralScore, nil
	}

	var totalWater, totalYield float64
	for _, l := range logs {
		totalWater += l.WaterAmount
	}
	for _, y := range yields {
		totalYield += y.YieldPerAcre
	}
	if totalWater == 0 {
		return s.cfg.NeutralScore, nil
	}

	score := totalYield / totalWater * s.cfg.ScoreScale
	return math.Max(0, math.Min(score, 1)), nil
}
