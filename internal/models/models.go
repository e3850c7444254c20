package models

import (
	"database/sql"
	"time"
)

// Growth stages a crop moves through over a season. Stage changes come from
// outside (the farmer or an agronomy feed), never from the decision engine.
const (
	StageSeedling   = "seedling"
	StageVegetative = "vegetative"
	StageFlowering  = "flowering"
	StageMaturity   = "maturity"
)

// Recommendation priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Recommendation statuses. Only the initial "pending" is set by the engine;
// the rest are user actions.
const (
	StatusPending   = "pending"
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
)

type Farmer struct {
	ID               string
	Name             string
	Email            string
	Phone            sql.NullString
	FarmName         string
	FarmLocation     string
	Latitude         sql.NullFloat64
	Longitude        sql.NullFloat64
	Elevation        sql.NullFloat64 // meters above sea level
	TotalAcres       float64
	SoilType         string
	IrrigationMethod string // "drip", "sprinkler", "flood", "pivot", "furrow"
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Crop struct {
	ID               string
	FarmerID         string
	CropType         string
	FieldName        string
	Acres            float64
	PlantingDate     time.Time
	GrowthStage      string
	WaterRequirement float64 // baseline inches per day
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type IrrigationLog struct {
	ID             string
	CropID         string
	WaterAmount    float64 // gallons
	Duration       int     // minutes
	IrrigationDate time.Time
	Method         string
	Efficiency     sql.NullFloat64 // realized efficiency ratio, 0-1
	Notes          sql.NullString
	CreatedAt      time.Time
}

type IrrigationRecommendation struct {
	ID              string
	CropID          string
	RecommendedDate time.Time
	WaterAmount     float64 // gallons
	Duration        int     // minutes
	Priority        string
	Reasoning       string
	WeatherFactors  *WeatherFactors
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// WeatherFactors is the audit snapshot embedded in every recommendation: the
// exact inputs the engine used, so the numeric decision can be reproduced
// from the record alone.
type WeatherFactors struct {
	CurrentTemperature float64          `json:"current_temperature"`
	Humidity           float64          `json:"humidity"`
	ET                 float64          `json:"et"`
	Forecast           []ForecastFactor `json:"forecast"`
}

type ForecastFactor struct {
	Date              time.Time `json:"date"`
	Temperature       float64   `json:"temperature"`
	Humidity          float64   `json:"humidity"`
	Condition         string    `json:"condition"`
	PrecipProbability float64   `json:"precipitation_probability"`
}

type CropYield struct {
	ID             string
	CropID         string
	HarvestDate    time.Time
	YieldPerAcre   float64
	QualityScore   sql.NullFloat64 // 0-100
	TotalWaterUsed float64         // gallons
	Notes          sql.NullString
	CreatedAt      time.Time
}

type PerformanceMetric struct {
	ID               string
	FarmerID         string
	CropID           sql.NullString
	MetricType       string // e.g. "water_efficiency"
	Value            float64
	Unit             string
	BenchmarkValue   sql.NullFloat64
	ComparisonPeriod string // "season", "year", "trailing_30d"
	CalculationDate  time.Time
	CreatedAt        time.Time
}
