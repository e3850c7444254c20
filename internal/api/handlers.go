package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/furrowlabs/irrigated/internal/models"
)

// parseDate accepts either an RFC 3339 timestamp or a bare calendar date.
// Bare dates are interpreted in the server's timezone.
func (s *Server) parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", v, s.loc)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func optStr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func optFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

type createFarmerRequest struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Phone            *string  `json:"phone"`
	FarmName         string   `json:"farm_name"`
	FarmLocation     string   `json:"farm_location"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Elevation        *float64 `json:"elevation"`
	TotalAcres       float64  `json:"total_acres"`
	SoilType         string   `json:"soil_type"`
	IrrigationMethod string   `json:"irrigation_method"`
}

func (s *Server) handleCreateFarmer(w http.ResponseWriter, r *http.Request) {
	var req createFarmerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" || req.Email == "" || req.FarmLocation == "" {
		writeError(w, http.StatusBadRequest, "name, email and farm_location are required")
		return
	}
	if req.TotalAcres <= 0 {
		writeError(w, http.StatusBadRequest, "total_acres must be positive")
		return
	}

	f, err := s.store.CreateFarmer(models.Farmer{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            optStr(req.Phone),
		FarmName:         req.FarmName,
		FarmLocation:     req.FarmLocation,
		Latitude:         optFloat(req.Latitude),
		Longitude:        optFloat(req.Longitude),
		Elevation:        optFloat(req.Elevation),
		TotalAcres:       req.TotalAcres,
		SoilType:         req.SoilType,
		IrrigationMethod: req.IrrigationMethod,
	})
	if err != nil {
		log.Printf("api: create farmer: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create farmer")
		return
	}
	writeJSON(w, http.StatusCreated, toFarmerView(*f))
}

func (s *Server) handleListFarmers(w http.ResponseWriter, r *http.Request) {
	farmers, err := s.store.ListFarmers()
	if err != nil {
		log.Printf("api: list farmers: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list farmers")
		return
	}
	views := make([]farmerView, 0, len(farmers))
	for _, f := range farmers {
		views = append(views, toFarmerView(f))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetFarmer(w http.ResponseWriter, r *http.Request) {
	f, err := s.store.GetFarmer(r.PathValue("id"))
	if err != nil {
		log.Printf("api: get farmer: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch farmer")
		return
	}
	if f == nil {
		writeError(w, http.StatusNotFound, "farmer not found")
		return
	}
	writeJSON(w, http.StatusOK, toFarmerView(*f))
}

type createCropRequest struct {
	FarmerID         string  `json:"farmer_id"`
	CropType         string  `json:"crop_type"`
	FieldName        string  `json:"field_name"`
	Acres            float64 `json:"acres"`
	PlantingDate     string  `json:"planting_date"`
	GrowthStage      string  `json:"growth_stage"`
	WaterRequirement float64 `json:"water_requirement"`
}

func (s *Server) handleCreateCrop(w http.ResponseWriter, r *http.Request) {
	var req createCropRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.FarmerID == "" || req.CropType == "" {
		writeError(w, http.StatusBadRequest, "farmer_id and crop_type are required")
		return
	}
	if req.Acres <= 0 {
		writeError(w, http.StatusBadRequest, "acres must be positive")
		return
	}
	stage := req.GrowthStage
	if stage == "" {
		stage = models.StageSeedling
	}
	if !validStage(stage) {
		writeError(w, http.StatusBadRequest, "unknown growth_stage "+req.GrowthStage)
		return
	}
	planted, err := s.parseDate(req.PlantingDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid planting_date: "+err.Error())
		return
	}

	farmer, err := s.store.GetFarmer(req.FarmerID)
	if err != nil {
		log.Printf("api: create crop: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create crop")
		return
	}
	if farmer == nil {
		writeError(w, http.StatusNotFound, "farmer not found")
		return
	}

	c, err := s.store.CreateCrop(models.Crop{
		FarmerID:         req.FarmerID,
		CropType:         strings.ToLower(req.CropType),
		FieldName:        req.FieldName,
		Acres:            req.Acres,
		PlantingDate:     planted,
		GrowthStage:      stage,
		WaterRequirement: req.WaterRequirement,
	})
	if err != nil {
		log.Printf("api: create crop: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create crop")
		return
	}
	writeJSON(w, http.StatusCreated, toCropView(*c))
}

func (s *Server) handleListCrops(w http.ResponseWriter, r *http.Request) {
	crops, err := s.store.GetCropsByFarmer(r.PathValue("id"))
	if err != nil {
		log.Printf("api: list crops: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list crops")
		return
	}
	views := make([]cropView, 0, len(crops))
	for _, c := range crops {
		views = append(views, toCropView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

type updateStageRequest struct {
	GrowthStage string `json:"growth_stage"`
}

func validStage(stage string) bool {
	switch stage {
	case models.StageSeedling, models.StageVegetative, models.StageFlowering, models.StageMaturity:
		return true
	}
	return false
}

func (s *Server) handleUpdateGrowthStage(w http.ResponseWriter, r *http.Request) {
	var req updateStageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !validStage(req.GrowthStage) {
		writeError(w, http.StatusBadRequest, "unknown growth_stage "+req.GrowthStage)
		return
	}
	found, err := s.store.UpdateCropGrowthStage(r.PathValue("id"), req.GrowthStage)
	if err != nil {
		log.Printf("api: update growth stage: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update growth stage")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "crop not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"growth_stage": req.GrowthStage})
}

type createLogRequest struct {
	CropID         string   `json:"crop_id"`
	WaterAmount    float64  `json:"water_amount"`
	Duration       int      `json:"duration"`
	IrrigationDate string   `json:"irrigation_date"`
	Method         string   `json:"method"`
	Efficiency     *float64 `json:"efficiency"`
	Notes          *string  `json:"notes"`
}

func (s *Server) handleCreateIrrigationLog(w http.ResponseWriter, r *http.Request) {
	var req createLogRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.CropID == "" {
		writeError(w, http.StatusBadRequest, "crop_id is required")
		return
	}
	if req.WaterAmount < 0 {
		writeError(w, http.StatusBadRequest, "water_amount cannot be negative")
		return
	}
	when, err := s.parseDate(req.IrrigationDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid irrigation_date: "+err.Error())
		return
	}

	crop, err := s.store.GetCrop(req.CropID)
	if err != nil {
		log.Printf("api: create irrigation log: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create irrigation log")
		return
	}
	if crop == nil {
		writeError(w, http.StatusNotFound, "crop not found")
		return
	}

	l, err := s.store.CreateIrrigationLog(models.IrrigationLog{
		CropID:         req.CropID,
		WaterAmount:    req.WaterAmount,
		Duration:       req.Duration,
		IrrigationDate: when,
		Method:         req.Method,
		Efficiency:     optFloat(req.Efficiency),
		Notes:          optStr(req.Notes),
	})
	if err != nil {
		log.Printf("api: create irrigation log: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create irrigation log")
		return
	}
	writeJSON(w, http.StatusCreated, toLogView(*l))
}

func (s *Server) handleListIrrigationLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.store.GetIrrigationLogs(r.PathValue("id"))
	if err != nil {
		log.Printf("api: list irrigation logs: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list irrigation logs")
		return
	}
	views := make([]logView, 0, len(logs))
	for _, l := range logs {
		views = append(views, toLogView(l))
	}
	writeJSON(w, http.StatusOK, views)
}

type createYieldRequest struct {
	CropID         string   `json:"crop_id"`
	HarvestDate    string   `json:"harvest_date"`
	YieldPerAcre   float64  `json:"yield_per_acre"`
	QualityScore   *float64 `json:"quality_score"`
	TotalWaterUsed float64  `json:"total_water_used"`
	Notes          *string  `json:"notes"`
}

func (s *Server) handleCreateCropYield(w http.ResponseWriter, r *http.Request) {
	var req createYieldRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.CropID == "" {
		writeError(w, http.StatusBadRequest, "crop_id is required")
		return
	}
	harvested, err := s.parseDate(req.HarvestDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid harvest_date: "+err.Error())
		return
	}

	crop, err := s.store.GetCrop(req.CropID)
	if err != nil {
		log.Printf("api: create crop yield: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create crop yield")
		return
	}
	if crop == nil {
		writeError(w, http.StatusNotFound, "crop not found")
		return
	}

	y, err := s.store.CreateCropYield(models.CropYield{
		CropID:         req.CropID,
		HarvestDate:    harvested,
		YieldPerAcre:   req.YieldPerAcre,
		QualityScore:   optFloat(req.QualityScore),
		TotalWaterUsed: req.TotalWaterUsed,
		Notes:          optStr(req.Notes),
	})
	if err != nil {
		log.Printf("api: create crop yield: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create crop yield")
		return
	}
	writeJSON(w, http.StatusCreated, toYieldView(*y))
}

func (s *Server) handleListCropYields(w http.ResponseWriter, r *http.Request) {
	yields, err := s.store.GetCropYields(r.PathValue("id"))
	if err != nil {
		log.Printf("api: list crop yields: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list crop yields")
		return
	}
	views := make([]yieldView, 0, len(yields))
	for _, y := range yields {
		views = append(views, toYieldView(y))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	farmerID := r.PathValue("id")
	farmer, err := s.store.GetFarmer(farmerID)
	if err != nil {
		log.Printf("api: generate recommendations: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to generate recommendations")
		return
	}
	if farmer == nil {
		writeError(w, http.StatusNotFound, "farmer not found")
		return
	}

	recs, err := s.engine.GenerateRecommendations(r.Context(), farmerID)
	if err != nil {
		log.Printf("api: generate recommendations: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to generate recommendations")
		return
	}
	views := make([]recommendationView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, toRecommendationView(rec))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.GetRecommendationsByFarmer(r.PathValue("id"))
	if err != nil {
		log.Printf("api: list recommendations: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list recommendations")
		return
	}
	views := make([]recommendationView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, toRecommendationView(rec))
	}
	writeJSON(w, http.StatusOK, views)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func validStatus(status string) bool {
	switch status {
	case models.StatusPending, models.StatusScheduled, models.StatusCompleted, models.StatusSkipped:
		return true
	}
	return false
}

func (s *Server) handleUpdateRecommendationStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !validStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "unknown status "+req.Status)
		return
	}
	found, err := s.store.UpdateRecommendationStatus(r.PathValue("id"), req.Status)
	if err != nil {
		log.Printf("api: update recommendation status: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update recommendation status")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "recommendation not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// Window defaults to the trailing 30 days when start/end are absent.
func (s *Server) handleWaterEfficiency(w http.ResponseWriter, r *http.Request) {
	farmerID := r.PathValue("id")
	end := time.Now().In(s.loc)
	start := end.AddDate(0, 0, -30)

	var err error
	if v := r.URL.Query().Get("end"); v != "" {
		if end, err = s.parseDate(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid end: "+err.Error())
			return
		}
	}
	if v := r.URL.Query().Get("start"); v != "" {
		if start, err = s.parseDate(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid start: "+err.Error())
			return
		}
	}
	if !start.Before(end) {
		writeError(w, http.StatusBadRequest, "start must precede end")
		return
	}

	farmer, err := s.store.GetFarmer(farmerID)
	if err != nil {
		log.Printf("api: water efficiency: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute water efficiency")
		return
	}
	if farmer == nil {
		writeError(w, http.StatusNotFound, "farmer not found")
		return
	}

	eff, err := s.scorer.WaterEfficiency(farmerID, start, end)
	if err != nil {
		log.Printf("api: water efficiency: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute water efficiency")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"efficiency": eff})
}

func (s *Server) handleEfficiencyScore(w http.ResponseWriter, r *http.Request) {
	farmerID := r.PathValue("id")
	cropID := r.URL.Query().Get("crop")

	farmer, err := s.store.GetFarmer(farmerID)
	if err != nil {
		log.Printf("api: efficiency score: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute efficiency score")
		return
	}
	if farmer == nil {
		writeError(w, http.StatusNotFound, "farmer not found")
		return
	}
	if cropID != "" {
		crop, err := s.store.GetCrop(cropID)
		if err != nil {
			log.Printf("api: efficiency score: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to compute efficiency score")
			return
		}
		if crop == nil {
			writeError(w, http.StatusNotFound, "crop not found")
			return
		}
		if crop.FarmerID != farmerID {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("crop %s does not belong to farmer %s", cropID, farmerID))
			return
		}
	}

	score, err := s.scorer.Score(farmerID, cropID)
	if err != nil {
		log.Printf("api: efficiency score: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute efficiency score")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"efficiency_score": score})
}
