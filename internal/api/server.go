// Package api exposes the decision engine and record store over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/furrowlabs/irrigated/internal/efficiency"
	"github.com/furrowlabs/irrigated/internal/engine"
	"github.com/furrowlabs/irrigated/internal/store"
)

type Server struct {
	store  *store.Store
	engine *engine.Engine
	scorer *efficiency.Scorer
	port   string
	loc    *time.Location
}

func NewServer(st *store.Store, eng *engine.Engine, scorer *efficiency.Scorer, port string, loc *time.Location) *Server {
	return &Server{
		store:  st,
		engine: eng,
		scorer: scorer,
		port:   port,
		loc:    loc,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/farmers", s.handleCreateFarmer)
	mux.HandleFunc("GET /api/farmers", s.handleListFarmers)
	mux.HandleFunc("GET /api/farmers/{id}", s.handleGetFarmer)
	mux.HandleFunc("GET /api/farmers/{id}/crops", s.handleListCrops)
	mux.HandleFunc("POST /api/farmers/{id}/recommendations/generate", s.handleGenerateRecommendations)
	mux.HandleFunc("GET /api/farmers/{id}/recommendations", s.handleListRecommendations)
	mux.HandleFunc("GET /api/farmers/{id}/water-efficiency", s.handleWaterEfficiency)
	mux.HandleFunc("GET /api/farmers/{id}/water-efficiency-score", s.handleEfficiencyScore)

	mux.HandleFunc("POST /api/crops", s.handleCreateCrop)
	mux.HandleFunc("PUT /api/crops/{id}/growth-stage", s.handleUpdateGrowthStage)
	mux.HandleFunc("GET /api/crops/{id}/irrigation-logs", s.handleListIrrigationLogs)
	mux.HandleFunc("GET /api/crops/{id}/yields", s.handleListCropYields)
	mux.HandleFunc("POST /api/irrigation-logs", s.handleCreateIrrigationLog)
	mux.HandleFunc("POST /api/crop-yields", s.handleCreateCropYield)
	mux.HandleFunc("PUT /api/recommendations/{id}/status", s.handleUpdateRecommendationStatus)

	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
