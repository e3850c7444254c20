// Package engine decides, per crop, whether irrigation is warranted and what
// it should look like: how much water, for how long, when, and how urgently.
package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/furrowlabs/irrigated/internal/crop"
	"github.com/furrowlabs/irrigated/internal/et"
	"github.com/furrowlabs/irrigated/internal/metrics"
	"github.com/furrowlabs/irrigated/internal/models"
	"github.com/furrowlabs/irrigated/internal/weather"
)

// Store is the subset of the record store the engine reads and writes.
type Store interface {
	GetFarmer(id string) (*models.Farmer, error)
	GetCropsByFarmer(farmerID string) ([]models.Crop, error)
	GetIrrigationLogs(cropID string) ([]models.IrrigationLog, error)
	CreateRecommendation(r models.IrrigationRecommendation) (*models.IrrigationRecommendation, error)
}

// Config collects every policy constant the decision rules use. The
// thresholds are heuristics carried over from field practice, not physical
// constants, so they are tunable in one place.
type Config struct {
	DefaultLatitude  float64 // used when the farmer has no coordinates
	DefaultElevation float64 // meters

	DeficitThreshold    float64 // inches; irrigate only above this
	HighPriorityDeficit float64 // inches; high priority above this
	RainProbability     float64 // percent; forecast day counts as rain above this
	RainDelayDays       int     // skip irrigation if rain within this many days
	HotTemperatureF     float64 // schedule early morning above this, else afternoon

	DefaultDaysSinceIrrigation int
	EmbeddedForecastDays       int
	GallonsPerAcreInch         float64
}

// DefaultConfig returns the production policy values.
func DefaultConfig() Config {
	return Config{
		DefaultLatitude:            36.7783, // Central Valley, CA
		DefaultElevation:           90,
		DeficitThreshold:           0.5,
		HighPriorityDeficit:        1.0,
		RainProbability:            70,
		RainDelayDays:              2,
		HotTemperatureF:            80,
		DefaultDaysSinceIrrigation: 7,
		EmbeddedForecastDays:       3,
		GallonsPerAcreInch:         27154,
	}
}

// Evaluation is the outcome of one crop's assessment. Recommendation is nil
// when no irrigation is warranted; Reasoning always explains why.
type Evaluation struct {
	Recommendation *models.IrrigationRecommendation
	Reasoning      string
}

type Engine struct {
	store   Store
	weather weather.Source
	cfg     Config

	// test seams
	now    func() time.Time
	calcET func(et.Inputs) float64
}

func New(store Store, source weather.Source, cfg Config) *Engine {
	return &Engine{
		store:   store,
		weather: source,
		cfg:     cfg,
		now:     time.Now,
		calcET:  et.Calculate,
	}
}

// EvaluateCrop runs the full decision sequence for one crop: weather, ET,
// crop coefficient, deficit accumulation, rain delay, and synthesis. A nil
// Evaluation with nil error means the crop was skipped because its farmer
// could not be resolved. Collaborator I/O errors fail this evaluation only.
func (e *Engine) EvaluateCrop(ctx context.Context, c models.Crop) (*Evaluation, error) {
	farmer, err := e.store.GetFarmer(c.FarmerID)
	if err != nil {
		return nil, fmt.Errorf("resolve farmer %s: %w", c.FarmerID, err)
	}
	if farmer == nil {
		log.Printf("engine: crop %s has no resolvable farmer %s, skipping", c.ID, c.FarmerID)
		metrics.CropsSkippedTotal.WithLabelValues("no_farmer").Inc()
		return nil, nil
	}

	current, err := e.weather.Current(ctx, farmer.FarmLocation)
	if err != nil {
		return nil, fmt.Errorf("current weather for %q: %w", farmer.FarmLocation, err)
	}
	forecast, err := e.weather.Forecast(ctx, farmer.FarmLocation)
	if err != nil {
		return nil, fmt.Errorf("forecast for %q: %w", farmer.FarmLocation, err)
	}

	now := e.now()

	lat := e.cfg.DefaultLatitude
	if farmer.Latitude.Valid {
		lat = farmer.Latitude.Float64
	}
	elev := e.cfg.DefaultElevation
	if farmer.Elevation.Valid {
		elev = farmer.Elevation.Float64
	}

	et0 := e.calcET(et.Inputs{
		TemperatureF: current.Temperature,
		Humidity:     current.Humidity,
		WindSpeedMPH: current.WindSpeed,
		UVIndex:      current.UVIndex,
		Latitude:     lat,
		ElevationM:   elev,
		Date:         now,
	})

	kc := crop.Coefficient(c.CropType, c.GrowthStage)
	dailyNeed := kc * et0

	logs, err := e.store.GetIrrigationLogs(c.ID)
	if err != nil {
		return nil, fmt.Errorf("irrigation logs for crop %s: %w", c.ID, err)
	}
	daysSince := e.cfg.DefaultDaysSinceIrrigation
	if len(logs) > 0 {
		d := int(now.Sub(logs[0].IrrigationDate).Hours() / 24)
		if d < 0 {
			d = 0
		}
		daysSince = d
	}

	deficit := dailyNeed * float64(daysSince)

	if deficit <= e.cfg.DeficitThreshold {
		metrics.CropsSkippedTotal.WithLabelValues("adequate_moisture").Inc()
		return &Evaluation{Reasoning: "Soil moisture adequate. No irrigation needed at this time."}, nil
	}

	if day, daysUntil := e.nextRain(forecast, now); day != nil && daysUntil <= e.cfg.RainDelayDays {
		metrics.CropsSkippedTotal.WithLabelValues("rain_delay").Inc()
		return &Evaluation{
			Reasoning: fmt.Sprintf("Soil moisture low but rain expected in %d days. Delaying irrigation.", daysUntil),
		}, nil
	}

	priority := models.PriorityMedium
	var when time.Time
	var reasoning string
	if deficit > e.cfg.HighPriorityDeficit {
		priority = models.PriorityHigh
		// Early-morning slot the next day: minimizes evaporative loss and
		// heat stress.
		next := now.AddDate(0, 0, 1)
		when = time.Date(next.Year(), next.Month(), next.Day(), 6, 30, 0, 0, now.Location())
		reasoning = fmt.Sprintf("Critical water deficit of %.2f inches. Immediate irrigation required.", deficit)
	} else {
		hour := 14
		if current.Temperature > e.cfg.HotTemperatureF {
			hour = 6
		}
		when = time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
		reasoning = fmt.Sprintf("Water deficit of %.2f inches detected. Optimal irrigation timing based on current weather.", deficit)
	}

	totalGallons := deficit * c.Acres * e.cfg.GallonsPerAcreInch
	duration := irrigationDuration(totalGallons, crop.FlowRate(farmer.IrrigationMethod))

	rec, err := e.store.CreateRecommendation(models.IrrigationRecommendation{
		CropID:          c.ID,
		RecommendedDate: when,
		WaterAmount:     totalGallons,
		Duration:        duration,
		Priority:        priority,
		Reasoning:       reasoning,
		WeatherFactors:  buildFactors(current, forecast, et0, e.cfg.EmbeddedForecastDays),
		Status:          models.StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("persist recommendation for crop %s: %w", c.ID, err)
	}

	metrics.RecommendationsGenerated.WithLabelValues(priority).Inc()
	return &Evaluation{Recommendation: rec, Reasoning: reasoning}, nil
}

// GenerateRecommendations evaluates every crop a farmer owns, concurrently.
// Per-crop failures are logged and isolated; the returned slice is whatever
// subset succeeded.
func (e *Engine) GenerateRecommendations(ctx context.Context, farmerID string) ([]models.IrrigationRecommendation, error) {
	crops, err := e.store.GetCropsByFarmer(farmerID)
	if err != nil {
		return nil, fmt.Errorf("crops for farmer %s: %w", farmerID, err)
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		recs []models.IrrigationRecommendation
	)
	for _, c := range crops {
		wg.Add(1)
		go func(c models.Crop) {
			defer wg.Done()
			ev, err := e.EvaluateCrop(ctx, c)
			if err != nil {
				log.Printf("engine: evaluate crop %s (%s): %v", c.ID, c.FieldName, err)
				metrics.CropsSkippedTotal.WithLabelValues("error").Inc()
				return
			}
			if ev == nil || ev.Recommendation == nil {
				return
			}
			mu.Lock()
			recs = append(recs, *ev.Recommendation)
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	return recs, nil
}

// nextRain finds the first forecast day whose precipitation probability
// exceeds the configured threshold, returning the day and its whole-day
// offset from now. Nil when no such day is in the horizon.
func (e *Engine) nextRain(forecast []weather.ForecastDay, now time.Time) (*weather.ForecastDay, int) {
	for i := range forecast {
		if forecast[i].PrecipProbability > e.cfg.RainProbability {
			days := int(math.Floor(forecast[i].Date.Sub(now).Hours() / 24))
			if days < 0 {
				days = 0
			}
			return &forecast[i], days
		}
	}
	return nil, 0
}

func irrigationDuration(totalGallons, flowGPM float64) int {
	return int(math.Round(totalGallons / flowGPM))
}

func buildFactors(current *weather.CurrentConditions, forecast []weather.ForecastDay, et0 float64, days int) *models.WeatherFactors {
	if days > len(forecast) {
		days = len(forecast)
	}
	factors := &models.WeatherFactors{
		CurrentTemperature: current.Temperature,
		Humidity:           current.Humidity,
		ET:                 et0,
	}
	for _, d := range forecast[:days] {
		factors.Forecast = append(factors.Forecast, models.ForecastFactor{
			Date:              d.Date,
			Temperature:       d.Temperature,
			Humidity:          d.Humidity,
			Condition:         d.Condition,
			PrecipProbability: d.PrecipProbability,
		})
	}
	return factors
}
