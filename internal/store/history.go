package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/furrowlabs/irrigated/internal/models"
)

func (s *Store) CreateCropYield(y models.CropYield) (*models.CropYield, error) {
	if y.ID == "" {
		y.ID = uuid.NewString()
	}
	y.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO crop_yields (id, crop_id, harvest_date, yield_per_acre, quality_score, total_water_used, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, y.ID, y.CropID, y.HarvestDate, y.YieldPerAcre, y.QualityScore, y.TotalWaterUsed, y.Notes, y.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert crop yield: %w", err)
	}
	return &y, nil
}

func (s *Store) GetCropYields(cropID string) ([]models.CropYield, error) {
	rows, err := s.db.Query(`
		SELECT id, crop_id, harvest_date, yield_per_acre, quality_score, total_water_used, notes, created_at
		FROM crop_yields WHERE crop_id = ? ORDER BY harvest_date DESC
	`, cropID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanYields(rows)
}

func (s *Store) GetCropYieldsByFarmer(farmerID string) ([]models.CropYield, error) {
	rows, err := s.db.Query(`
		SELECT y.id, y.crop_id, y.harvest_date, y.yield_per_acre, y.quality_score, y.total_water_used, y.notes, y.created_at
		FROM crop_yields y
		JOIN crops c ON c.id = y.crop_id
		WHERE c.farmer_id = ?
		ORDER BY y.harvest_date DESC
	`, farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanYields(rows)
}

func scanYields(rows *sql.Rows) ([]models.CropYield, error) {
	var yields []models.CropYield
	for rows.Next() {
		var y models.CropYield
		if err := rows.Scan(&y.ID, &y.CropID, &y.HarvestDate, &y.YieldPerAcre, &y.QualityScore, &y.TotalWaterUsed, &y.Notes, &y.CreatedAt); err != nil {
			return nil, err
		}
		yields = append(yields, y)
	}
	return yields, rows.Err()
}

func (s *Store) InsertPerformanceMetric(m models.PerformanceMetric) (*models.PerformanceMetric, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO performance_metrics (id, farmer_id, crop_id, metric_type, value, unit, benchmark_value, comparison_period, calculation_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.FarmerID, m.CropID, m.MetricType, m.Value, m.Unit, m.BenchmarkValue, m.ComparisonPeriod, m.CalculationDate, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert performance metric: %w", err)
	}
	return &m, nil
}

func (s *Store) GetPerformanceMetrics(farmerID, metricType string) ([]models.PerformanceMetric, error) {
	rows, err := s.db.Query(`
		SELECT id, farmer_id, crop_id, metric_type, value, unit, benchmark_value, comparison_period, calculation_date, created_at
		FROM performance_metrics
		WHERE farmer_id = ? AND metric_type = ?
		ORDER BY calculation_date DESC
	`, farmerID, metricType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ms []models.PerformanceMetric
	for rows.Next() {
		var m models.PerformanceMetric
		if err := rows.Scan(&m.ID, &m.FarmerID, &m.CropID, &m.MetricType, &m.Value, &m.Unit, &m.BenchmarkValue, &m.ComparisonPeriod, &m.CalculationDate, &m.CreatedAt); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, rows.Err()
}
