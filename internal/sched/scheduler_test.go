package sched

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/furrowlabs/irrigated/internal/models"
)

type fakeStore struct {
	farmers []models.Farmer
	crops   map[string]*models.Crop
	metrics []models.PerformanceMetric
}

func (f *fakeStore) ListFarmers() ([]models.Farmer, error) {
	return f.farmers, nil
}

func (f *fakeStore) GetCrop(id string) (*models.Crop, error) {
	return f.crops[id], nil
}

func (f *fakeStore) InsertPerformanceMetric(m models.PerformanceMetric) (*models.PerformanceMetric, error) {
	f.metrics = append(f.metrics, m)
	return &m, nil
}

type fakeGenerator struct {
	recs map[string][]models.IrrigationRecommendation
	errs map[string]error
}

func (f *fakeGenerator) GenerateRecommendations(ctx context.Context, farmerID string) ([]models.IrrigationRecommendation, error) {
	if err := f.errs[farmerID]; err != nil {
		return nil, err
	}
	return f.recs[farmerID], nil
}

type fakeScorer struct{ value float64 }

func (f *fakeScorer) WaterEfficiency(farmerID string, start, end time.Time) (float64, error) {
	return f.value, nil
}

type recordingNotifier struct {
	sent []string
	err  error
}

func (r *recordingNotifier) SendIrrigationAlert(email, name, cropLabel string, gallons float64, when time.Time) error {
	r.sent = append(r.sent, cropLabel)
	return r.err
}

func TestRunBatch_AlertsOnlyHighPriority(t *testing.T) {
	st := &fakeStore{
		farmers: []models.Farmer{{ID: "farmer-1", Name: "Maria", Email: "maria@example.com"}},
		crops: map[string]*models.Crop{
			"crop-1": {ID: "crop-1", FieldName: "North 40", CropType: "corn"},
			"crop-2": {ID: "crop-2", FieldName: "South 20", CropType: "wheat"},
		},
	}
	gen := &fakeGenerator{recs: map[string][]models.IrrigationRecommendation{
		"farmer-1": {
			{CropID: "crop-1", Priority: models.PriorityHigh, WaterAmount: 271540},
			{CropID: "crop-2", Priority: models.PriorityMedium, WaterAmount: 50000},
		},
	}}
	notifier := &recordingNotifier{}

	s := New(st, gen, &fakeScorer{value: 85}, notifier, time.UTC)
	if err := s.RunBatch(context.Background()); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("alerts sent = %d, want 1 (high priority only)", len(notifier.sent))
	}
	if notifier.sent[0] != "North 40 (corn)" {
		t.Errorf("alert label = %q, want crop field label", notifier.sent[0])
	}
}

func TestRunBatch_RecordsEfficiencyMetric(t *testing.T) {
	st := &fakeStore{
		farmers: []models.Farmer{{ID: "farmer-1", Email: "maria@example.com"}},
		crops:   map[string]*models.Crop{},
	}
	s := New(st, &fakeGenerator{}, &fakeScorer{value: 72.5}, &recordingNotifier{}, time.UTC)

	if err := s.RunBatch(context.Background()); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	if len(st.metrics) != 1 {
		t.Fatalf("metrics recorded = %d, want 1", len(st.metrics))
	}
	m := st.metrics[0]
	if m.MetricType != "water_efficiency" || m.Value != 72.5 {
		t.Errorf("metric = %+v, want water_efficiency of 72.5", m)
	}
	if m.ComparisonPeriod != "trailing_30d" {
		t.Errorf("ComparisonPeriod = %q, want trailing_30d", m.ComparisonPeriod)
	}
}

func TestRunBatch_ContinuesPastFarmerFailure(t *testing.T) {
	st := &fakeStore{
		farmers: []models.Farmer{
			{ID: "farmer-1", Email: "a@example.com"},
			{ID: "farmer-2", Email: "b@example.com"},
		},
		crops: map[string]*models.Crop{},
	}
	gen := &fakeGenerator{
		errs: map[string]error{"farmer-1": errors.New("weather upstream down")},
		recs: map[string][]models.IrrigationRecommendation{
			"farmer-2": {{CropID: "crop-9", Priority: models.PriorityHigh}},
		},
	}
	notifier := &recordingNotifier{}

	s := New(st, gen, &fakeScorer{}, notifier, time.UTC)
	if err := s.RunBatch(context.Background()); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Errorf("alerts sent = %d, want 1 (second farmer still processed)", len(notifier.sent))
	}
}

func TestRunBatch_NotifierFailureDoesNotAbort(t *testing.T) {
	st := &fakeStore{
		farmers: []models.Farmer{{ID: "farmer-1", Email: "maria@example.com"}},
		crops:   map[string]*models.Crop{},
	}
	gen := &fakeGenerator{recs: map[string][]models.IrrigationRecommendation{
		"farmer-1": {{CropID: "crop-1", Priority: models.PriorityHigh}},
	}}
	notifier := &recordingNotifier{err: errors.New("smtp refused")}

	s := New(st, gen, &fakeScorer{}, notifier, time.UTC)
	if err := s.RunBatch(context.Background()); err != nil {
		t.Fatalf("RunBatch: %v (notifier failures must not fail the batch)", err)
	}
	if len(st.metrics) != 1 {
		t.Errorf("efficiency metric still recorded after notify failure, got %d", len(st.metrics))
	}
}
