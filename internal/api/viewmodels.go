package api

import (
	"database/sql"
	"time"

	"github.com/furrowlabs/irrigated/internal/models"
)

// JSON shapes for the API. Storage types carry sql.Null* fields that do not
// marshal cleanly, so each record gets a flat view with pointers for the
// optional columns.

type farmerView struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            *string   `json:"phone,omitempty"`
	FarmName         string    `json:"farm_name"`
	FarmLocation     string    `json:"farm_location"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	Elevation        *float64  `json:"elevation,omitempty"`
	TotalAcres       float64   `json:"total_acres"`
	SoilType         string    `json:"soil_type"`
	IrrigationMethod string    `json:"irrigation_method"`
	CreatedAt        time.Time `json:"created_at"`
}

type cropView struct {
	ID               string    `json:"id"`
	FarmerID         string    `json:"farmer_id"`
	CropType         string    `json:"crop_type"`
	FieldName        string    `json:"field_name"`
	Acres            float64   `json:"acres"`
	PlantingDate     time.Time `json:"planting_date"`
	GrowthStage      string    `json:"growth_stage"`
	WaterRequirement float64   `json:"water_requirement"`
}

type logView struct {
	ID             string    `json:"id"`
	CropID         string    `json:"crop_id"`
	WaterAmount    float64   `json:"water_amount"`
	Duration       int       `json:"duration"`
	IrrigationDate time.Time `json:"irrigation_date"`
	Method         string    `json:"method"`
	Efficiency     *float64  `json:"efficiency,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
}

type recommendationView struct {
	ID              string                 `json:"id"`
	CropID          string                 `json:"crop_id"`
	RecommendedDate time.Time              `json:"recommended_date"`
	WaterAmount     float64                `json:"water_amount"`
	Duration        int                    `json:"duration"`
	Priority        string                 `json:"priority"`
	Reasoning       string                 `json:"reasoning"`
	WeatherFactors  *models.WeatherFactors `json:"weather_factors,omitempty"`
	Status          string                 `json:"status"`
	CreatedAt       time.Time              `json:"created_at"`
}

type yieldView struct {
	ID             string    `json:"id"`
	CropID         string    `json:"crop_id"`
	HarvestDate    time.Time `json:"harvest_date"`
	YieldPerAcre   float64   `json:"yield_per_acre"`
	QualityScore   *float64  `json:"quality_score,omitempty"`
	TotalWaterUsed float64   `json:"total_water_used"`
	Notes          *string   `json:"notes,omitempty"`
}

func nullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}

func toFarmerView(f models.Farmer) farmerView {
	return farmerView{
		ID:               f.ID,
		Name:             f.Name,
		Email:            f.Email,
		Phone:            nullStr(f.Phone),
		FarmName:         f.FarmName,
		FarmLocation:     f.FarmLocation,
		Latitude:         nullFloat(f.Latitude),
		Longitude:        nullFloat(f.Longitude),
		Elevation:        nullFloat(f.Elevation),
		TotalAcres:       f.TotalAcres,
		SoilType:         f.SoilType,
		IrrigationMethod: f.IrrigationMethod,
		CreatedAt:        f.CreatedAt,
	}
}

func toCropView(c models.Crop) cropView {
	return cropView{
		ID:               c.ID,
		FarmerID:         c.FarmerID,
		CropType:         c.CropType,
		FieldName:        c.FieldName,
		Acres:            c.Acres,
		PlantingDate:     c.PlantingDate,
		GrowthStage:      c.GrowthStage,
		WaterRequirement: c.WaterRequirement,
	}
}

func toLogView(l models.IrrigationLog) logView {
	return logView{
		ID:             l.ID,
		CropID:         l.CropID,
		WaterAmount:    l.WaterAmount,
		Duration:       l.Duration,
		IrrigationDate: l.IrrigationDate,
		Method:         l.Method,
		Efficiency:     nullFloat(l.Efficiency),
		Notes:          nullStr(l.Notes),
	}
}

func toRecommendationView(r models.IrrigationRecommendation) recommendationView {
	return recommendationView{
		ID:              r.ID,
		CropID:          r.CropID,
		RecommendedDate: r.RecommendedDate,
		WaterAmount:     r.WaterAmount,
		Duration:        r.Duration,
		Priority:        r.Priority,
		Reasoning:       r.Reasoning,
		WeatherFactors:  r.WeatherFactors,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt,
	}
}

func toYieldView(y models.CropYield) yieldView {
	return yieldView{
		ID:             y.ID,
		CropID:         y.CropID,
		HarvestDate:    y.HarvestDate,
		YieldPerAcre:   y.YieldPerAcre,
		QualityScore:   nullFloat(y.QualityScore),
		TotalWaterUsed: y.TotalWaterUsed,
		Notes:          nullStr(y.Notes),
	}
}
