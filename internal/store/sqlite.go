// Package store is the record store for farmers, crops, irrigation history,
// and recommendations, backed by SQLite.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/furrowlabs/irrigated/internal/models"
)

type Store struct {
	db  *sql.DB
	loc *time.Location
}

func New(db *sql.DB, loc *time.Location) *Store {
	return &Store{db: db, loc: loc}
}

func (s *Store) CreateFarmer(f models.Farmer) (*models.Farmer, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now

	_, err := s.db.Exec(`
		INSERT INTO farmers (id, name, email, phone, farm_name, farm_location, latitude, longitude, elevation, total_acres, soil_type, irrigation_method, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.Name, f.Email, f.Phone, f.FarmName, f.FarmLocation, f.Latitude, f.Longitude, f.Elevation, f.TotalAcres, f.SoilType, f.IrrigationMethod, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert farmer: %w", err)
	}
	return &f, nil
}

func (s *Store) GetFarmer(id string) (*models.Farmer, error) {
	row := s.db.QueryRow(`
		SELECT id, name, email, phone, farm_name, farm_location, latitude, longitude, elevation, total_acres, soil_type, irrigation_method, created_at, updated_at
		FROM farmers WHERE id = ?
	`, id)

	var f models.Farmer
	err := row.Scan(&f.ID, &f.Name, &f.Email, &f.Phone, &f.FarmName, &f.FarmLocation, &f.Latitude, &f.Longitude, &f.Elevation, &f.TotalAcres, &f.SoilType, &f.IrrigationMethod, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) ListFarmers() ([]models.Farmer, error) {
	rows, err := s.db.Query(`
		SELECT id, name, email, phone, farm_name, farm_location, latitude, longitude, elevation, total_acres, soil_type, irrigation_method, created_at, updated_at
		FROM farmers ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var farmers []models.Farmer
	for rows.Next() {
		var f models.Farmer
		if err := rows.Scan(&f.ID, &f.Name, &f.Email, &f.Phone, &f.FarmName, &f.FarmLocation, &f.Latitude, &f.Longitude, &f.Elevation, &f.TotalAcres, &f.SoilType, &f.IrrigationMethod, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		farmers = append(farmers, f)
	}
	return farmers, rows.Err()
}

func (s *Store) CreateCrop(c models.Crop) (*models.Crop, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.GrowthStage == "" {
		c.GrowthStage = models.StageSeedling
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := s.db.Exec(`
		INSERT INTO crops (id, farmer_id, crop_type, field_name, acres, planting_date, growth_stage, water_requirement, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.FarmerID, c.CropType, c.FieldName, c.Acres, c.PlantingDate, c.GrowthStage, c.WaterRequirement, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert crop: %w", err)
	}
	return &c, nil
}

func (s *Store) GetCrop(id string) (*models.Crop, error) {
	row := s.db.QueryRow(`
		SELECT id, farmer_id, crop_type, field_name, acres, planting_date, growth_stage, water_requirement, created_at, updated_at
		FROM crops WHERE id = ?
	`, id)

	var c models.Crop
	err := row.Scan(&c.ID, &c.FarmerID, &c.CropType, &c.FieldName, &c.Acres, &c.PlantingDate, &c.GrowthStage, &c.WaterRequirement, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetCropsByFarmer(farmerID string) ([]models.Crop, error) {
	rows, err := s.db.Query(`
		SELECT id, farmer_id, crop_type, field_name, acres, planting_date, growth_stage, water_requirement, created_at, updated_at
		FROM crops WHERE farmer_id = ? ORDER BY created_at
	`, farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crops []models.Crop
	for rows.Next() {
		var c models.Crop
		if err := rows.Scan(&c.ID, &c.FarmerID, &c.CropType, &c.FieldName, &c.Acres, &c.PlantingDate, &c.GrowthStage, &c.WaterRequirement, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		crops = append(crops, c)
	}
	return crops, rows.Err()
}

// UpdateCropGrowthStage mutates a crop's stage. Stage changes come from the
// API, not the decision engine. Returns false with a nil error when the crop
// does not exist.
func (s *Store) UpdateCropGrowthStage(id, stage string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE crops SET growth_stage = ?, updated_at = ? WHERE id = ?
	`, stage, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("update growth stage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
