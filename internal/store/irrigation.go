package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/furrowlabs/irrigated/internal/models"
)

func (s *Store) CreateIrrigationLog(l models.IrrigationLog) (*models.IrrigationLog, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO irrigation_logs (id, crop_id, water_amount, duration, irrigation_date, method, efficiency, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.CropID, l.WaterAmount, l.Duration, l.IrrigationDate, l.Method, l.Efficiency, l.Notes, l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert irrigation log: %w", err)
	}
	return &l, nil
}

// GetIrrigationLogs returns a crop's history, most recent first.
func (s *Store) GetIrrigationLogs(cropID string) ([]models.IrrigationLog, error) {
	rows, err := s.db.Query(`
		SELECT id, crop_id, water_amount, duration, irrigation_date, method, efficiency, notes, created_at
		FROM irrigation_logs WHERE crop_id = ? ORDER BY irrigation_date DESC
	`, cropID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

// GetIrrigationLogsByFarmer returns history across all of a farmer's crops,
// most recent first.
func (s *Store) GetIrrigationLogsByFarmer(farmerID string) ([]models.IrrigationLog, error) {
	rows, err := s.db.Query(`
		SELECT l.id, l.crop_id, l.water_amount, l.duration, l.irrigation_date, l.method, l.efficiency, l.notes, l.created_at
		FROM irrigation_logs l
		JOIN crops c ON c.id = l.crop_id
		WHERE c.farmer_id = ?
		ORDER BY l.irrigation_date DESC
	`, farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

func scanLogs(rows *sql.Rows) ([]models.IrrigationLog, error) {
	var logs []models.IrrigationLog
	for rows.Next() {
		var l models.IrrigationLog
		if err := rows.Scan(&l.ID, &l.CropID, &l.WaterAmount, &l.Duration, &l.IrrigationDate, &l.Method, &l.Efficiency, &l.Notes, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *Store) CreateRecommendation(r models.IrrigationRecommendation) (*models.IrrigationRecommendation, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now

	var factors sql.NullString
	if r.WeatherFactors != nil {
		b, err := json.Marshal(r.WeatherFactors)
		if err != nil {
			return nil, fmt.Errorf("marshal weather factors: %w", err)
		}
		factors = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO irrigation_recommendations (id, crop_id, recommended_date, water_amount, duration, priority, reasoning, weather_factors, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.CropID, r.RecommendedDate, r.WaterAmount, r.Duration, r.Priority, r.Reasoning, factors, r.Status, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert recommendation: %w", err)
	}
	return &r, nil
}

// GetRecommendationsByFarmer returns recommendations across a farmer's crops,
// newest first.
func (s *Store) GetRecommendationsByFarmer(farmerID string) ([]models.IrrigationRecommendation, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.crop_id, r.recommended_date, r.water_amount, r.duration, r.priority, r.reasoning, r.weather_factors, r.status, r.created_at, r.updated_at
		FROM irrigation_recommendations r
		JOIN crops c ON c.id = r.crop_id
		WHERE c.farmer_id = ?
		ORDER BY r.created_at DESC
	`, farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.IrrigationRecommendation
	for rows.Next() {
		var r models.IrrigationRecommendation
		var factors sql.NullString
		if err := rows.Scan(&r.ID, &r.CropID, &r.RecommendedDate, &r.WaterAmount, &r.Duration, &r.Priority, &r.Reasoning, &factors, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		if factors.Valid {
			var wf models.WeatherFactors
			if err := json.Unmarshal([]byte(factors.String), &wf); err == nil {
				r.WeatherFactors = &wf
			}
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// UpdateRecommendationStatus records a user scheduling action. The engine
// only ever creates recommendations as pending. Returns false with a nil
// error when the recommendation does not exist.
func (s *Store) UpdateRecommendationStatus(id, status string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE irrigation_recommendations SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("update recommendation status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
