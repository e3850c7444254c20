package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/furrowlabs/irrigated/internal/et"
	"github.com/furrowlabs/irrigated/internal/models"
	"github.com/furrowlabs/irrigated/internal/weather"
)

var testNow = time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu      sync.Mutex
	farmers map[string]*models.Farmer
	crops   map[string][]models.Crop
	logs    map[string][]models.IrrigationLog
	logErr  map[string]error
	created []models.IrrigationRecommendation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		farmers: make(map[string]*models.Farmer),
		crops:   make(map[string][]models.Crop),
		logs:    make(map[string][]models.IrrigationLog),
		logErr:  make(map[string]error),
	}
}

func (f *fakeStore) GetFarmer(id string) (*models.Farmer, error) {
	return f.farmers[id], nil
}

func (f *fakeStore) GetCropsByFarmer(farmerID string) ([]models.Crop, error) {
	return f.crops[farmerID], nil
}

func (f *fakeStore) GetIrrigationLogs(cropID string) ([]models.IrrigationLog, error) {
	if err := f.logErr[cropID]; err != nil {
		return nil, err
	}
	return f.logs[cropID], nil
}

func (f *fakeStore) CreateRecommendation(r models.IrrigationRecommendation) (*models.IrrigationRecommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = fmt.Sprintf("rec-%d", len(f.created)+1)
	f.created = append(f.created, r)
	return &r, nil
}

type fakeWeather struct {
	current  weather.CurrentConditions
	forecast []weather.ForecastDay
	err      error
}

func (f *fakeWeather) Current(ctx context.Context, location string) (*weather.CurrentConditions, error) {
	if f.err != nil {
		return nil, f.err
	}
	cur := f.current
	return &cur, nil
}

func (f *fakeWeather) Forecast(ctx context.Context, location string) ([]weather.ForecastDay, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.forecast, nil
}

func dryForecast() []weather.ForecastDay {
	days := make([]weather.ForecastDay, 7)
	for i := range days {
		days[i] = weather.ForecastDay{
			Date:              testNow.AddDate(0, 0, i),
			Temperature:       90,
			Humidity:          35,
			Condition:         "Clear",
			PrecipProbability: 10,
		}
	}
	return days
}

func testFarmer() *models.Farmer {
	return &models.Farmer{
		ID:               "farmer-1",
		Name:             "Maria Lopez",
		Email:            "maria@example.com",
		FarmName:         "Lopez Family Farm",
		FarmLocation:     "Fresno, CA",
		Latitude:         sql.NullFloat64{Float64: 36.7378, Valid: true},
		Elevation:        sql.NullFloat64{Float64: 94, Valid: true},
		IrrigationMethod: "drip",
	}
}

func testCrop(cropType, stage string, acres float64) models.Crop {
	return models.Crop{
		ID:          "crop-1",
		FarmerID:    "farmer-1",
		CropType:    cropType,
		FieldName:   "North 40",
		Acres:       acres,
		GrowthStage: stage,
	}
}

// newTestEngine wires an engine with a fixed clock and a fixed ET value so
// deficit arithmetic is exact.
func newTestEngine(st *fakeStore, w *fakeWeather, et0 float64) *Engine {
	e := New(st, w, DefaultConfig())
	e.now = func() time.Time { return testNow }
	e.calcET = func(et.Inputs) float64 { return et0 }
	return e
}

func logDaysAgo(days int) []models.IrrigationLog {
	return []models.IrrigationLog{{
		ID:             "log-1",
		CropID:         "crop-1",
		IrrigationDate: testNow.AddDate(0, 0, -days),
	}}
}

func TestEvaluateCrop_DeficitBoundaryExclusive(t *testing.T) {
	st := newFakeStore()
	st.farmers["farmer-1"] = testFarmer()
	// Unknown crop type: Kc falls back to 0.8, so ET 0.625 gives a daily
	// need of exactly 0.5, and one day since irrigation a deficit of 0.5.
	st.logs["crop-1"] = logDaysAgo(1)

	e := newTestEngine(st, &fakeWeather{current: weather.CurrentConditions{Temperature: 75}, forecast: dryForecast()}, 0.625)

	ev, err := e.EvaluateCrop(context.Background(), testCrop("quinoa", "vegetative", 10))
	if err != nil {
		t.Fatalf("EvaluateCrop: %v", err)
	}
	if ev.Recommendation != nil {
		t.Errorf("deficit of exactly 0.5 produced a recommendation: %+v", ev.Recommendation)
	}
	if !strings.Contains(ev.Reasoning, "adequate") {
		t.Errorf("Reasoning = %q, want adequate-moisture explanation", ev.Reasoning)
	}
	if len(st.created) != 0 {
		t.Errorf("store has %d recommendations, want 0", len(st.created))
	}
}

func TestEvaluateCrop_RainDelay(t *testing.T) {
	st := newFakeStore()
	st.farmers["farmer-1"] = testFarmer()
	st.logs["crop-1"] = logDaysAgo(1)

	forecast := dryForecast()
	forecast[1].PrecipProbability = 80 // one day out

	// ET 2.5 × Kc 0.8 × 1 day = 2.0 inch deficit.
	e := newTestEngine(st, &fakeWeather{current: weather.CurrentConditions{Temperature: 75}, forecast: forecast}, 2.5)

	ev, err := e.EvaluateCrop(context.Background(), testCrop("quinoa", "vegetative", 10))
	if err != nil {
		t.Fatalf("EvaluateCrop: %v", err)
	}
	if ev.Recommendation != nil {
		t.Errorf("rain 1 day out still produced a recommendation: %+v", ev.Recommendation)
	}
	if !strings.Contains(ev.Reasoning, "rain expected in 1") {
		t.Errorf("Reasoning = %q, want rain-delay explanation", ev.Reasoning)
	}
	if !strings.Contains(ev.Reasoning, "Delaying") {
		t.Errorf("Reasoning = %q, want mention of the delay", ev.Reasoning)
	}
}

func TestEvaluateCrop_HighPriorityScheduledNextMorning(t *testing.T) {
	st := newFakeStore()
	st.farmers["farmer-1"] = testFarmer()
	st.logs["crop-1"] = logDaysAgo(1)

	// ET 1.875 × Kc 0.8 × 1 day = 1.5 inch deficit.
	e := newTestEngine(st, &fakeWeather{current: weather.CurrentConditions{Temperature: 75}, forecast: dryForecast()}, 1.875)

	ev, err := e.EvaluateCrop(context.Background(), testCrop("quinoa", "vegetative", 10))
	if err != nil {
		t.Fatalf("EvaluateCrop: %v", err)
	}
	rec := ev.Recommendation
	if rec == nil {
		t.Fatal("expected a recommendation for a 1.5 inch deficit")
	}
	if rec.Priority != models.PriorityHigh {
		t.Errorf("Priority = %q, want high", rec.Priority)
	}
	want := time.Date(2025, 7, 2, 6, 30, 0, 0, time.UTC)
	if !rec.RecommendedDate.Equal(want) {
		t.Errorf("RecommendedDate = %v, want %v (06:30 next day)", rec.RecommendedDate, want)
	}
	if rec.Status != models.StatusPending {
		t.Errorf("Status = %q, want pending", rec.Status)
	}
}

func TestEvaluateCrop_MediumPriorityTimeOfDay(t *testing.T) {
	tests := []struct {
		name     string
		tempF    float64
		wantHour int
	}{
		{"hot day irrigates early", 85, 6},
		{"mild day irrigates afternoon", 75, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStore()
			st.farmers["farmer-1"] = testFarmer()
			st.logs["crop-1"] = logDaysAgo(3)

			// Corn at maturity: Kc 0.6, ET 0.30 -> daily need 0.18,
			// 3 days -> deficit 0.54.
			e := newTestEngine(st, &fakeWeather{current: weather.CurrentConditions{Temperature: tt.tempF}, forecast: dryForecast()}, 0.30)

			ev, err := e.EvaluateCrop(context.Background(), testCrop("corn", "maturity", 10))
			if err != nil {
				t.Fatalf("EvaluateCrop: %v", err)
			}
			rec := ev.Recommendation
			if rec == nil {
				t.Fatal("expected a recommendation for a 0.54 inch deficit")
			}
			if rec.Priority != models.PriorityMedium {
				t.Errorf("Priority = %q, want medium", rec.Priority)
			}
			if rec.RecommendedDate.Day() != testNow.Day() {
				t.Errorf("RecommendedDate = %v, want same day", rec.RecommendedDate)
			}
			if rec.RecommendedDate.Hour() != tt.wantHour {
				t.Errorf("hour = %d, want %d", rec.RecommendedDate.Hour(), tt.wantHour)
			}
		})
	}
}

func TestEvaluateCrop_GallonsConversion(t *testing.T) {
	st := newFakeStore()
	st.farmers["farmer-1"] = testFarmer()
	st.logs["crop-1"] = logDaysAgo(1)

	// Deficit of exactly 1.0 inch: ET 1.25 × Kc 0.8 × 1 day. Boundary is
	// on the high-priority band, so this stays medium.
	e := newTestEngine(st, &fakeWeather{current: weather.CurrentConditions{Temperature: 75}, forecast: dryForecast()}, 1.25)

	ev, err := e.EvaluateCrop(context.Background(), testCrop("quinoa", "vegetative", 10))
	if err != nil {
		t.Fatalf("EvaluateCrop: %v", err)
	}
	rec := ev.Recommendation
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if rec.WaterAmount != 271540 {
		t.Errorf("WaterAmount = %v gallons, want 271540 (1 inch × 10 acres × 27154)", rec.WaterAmount)
	}
	if rec.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, want medium at exactly 1.0 inch", rec.Priority)
	}
}

func TestIrrigationDuration(t *testing.T) {
	tests := []struct {
		gallons float64
		flowGPM float64
		want    int
	}{
		{3000, 2, 1500},
		{271540, 2, 135770},
		{450, 15, 30},
		{100, 30, 3},
	}
	for _, tt := range tests {
		if got := irrigationDuration(tt.gallons, tt.flowGPM); got != tt.want {
			t.Errorf("irrigationDuration(%v, %v) = %d, want %d", tt.gallons, tt.flowGPM, got, tt.want)
		}
	}
}

func TestEvaluateCrop_EmbedsWeatherFactors(t *testing.T) {
	st := newFakeStore()
	st.farmers["farmer-1"] = testFarmer()
	st.logs["crop-1"] = logDaysAgo(1)

	e := newTestEngine(st, &fakeWeather{current: weather.CurrentConditions{Temperature: 91, Humidity: 33}, forecast: dryForecast()}, 1.875)

	ev, err := e.EvaluateCrop(context.Background(), testCrop("quinoa", "vegetative", 10))
	if err != nil {
		t.Fatalf("EvaluateCrop: %v", err)
	}
	wf := ev.Recommendation.WeatherFactors
	if wf == nil {
		t.Fatal("WeatherFactors missing from recommendation")
	}
	if wf.CurrentTemperature != 91 || wf.Humidity != 33 {
		t.Errorf("factors = %+v, want the exact inputs used", wf)
	}
	if wf.ET != 1.875 {
		t.Errorf("factors.ET = %v, want 1.875", wf.ET)
	}
	if len(wf.Forecast) != 3 {
		t.Errorf("len(factors.Forecast) = %d, want 3", len(wf.Forecast))
	}
}

func TestEvaluateCrop_NoLogsDefaultsToSevenDays(t *testing.T) {
	st := newFakeStore()
	st.farmers["farmer-1"] = testFarmer()
	// No logs at all: daysSince defaults to 7. ET 0.10 × Kc 0.8 × 7 = 0.56.
	e := newTestEngine(st, &fakeWeather{current: weather.CurrentConditions{Temperature: 75}, forecast: dryForecast()}, 0.10)

	ev, err := e.EvaluateCrop(context.Background(), testCrop("quinoa", "vegetative", 10))
	if err != nil {
		t.Fatalf("EvaluateCrop: %v", err)
	}
	if ev.Recommendation == nil {
		t.Fatal("expected a recommendation with the 7-day default")
	}
}

func TestEvaluateCrop_MissingFarmerSkipped(t *testing.T) {
	st := newFakeStore()
	e := newTestEngine(st, &fakeWeather{forecast: dryForecast()}, 1.0)

	ev, err := e.EvaluateCrop(context.Background(), testCrop("corn", "vegetative", 10))
	if err != nil {
		t.Fatalf("EvaluateCrop: %v", err)
	}
	if ev != nil {
		t.Errorf("ev = %+v, want nil skip for unresolvable farmer", ev)
	}
}

func TestEvaluateCrop_WeatherFailureIsError(t *testing.T) {
	st := newFakeStore()
	st.farmers["farmer-1"] = testFarmer()
	e := newTestEngine(st, &fakeWeather{err: errors.New("upstream down")}, 1.0)

	if _, err := e.EvaluateCrop(context.Background(), testCrop("corn", "vegetative", 10)); err == nil {
		t.Fatal("expected weather failure to propagate")
	}
}

func TestGenerateRecommendations_IsolatesFailures(t *testing.T) {
	st := newFakeStore()
	st.farmers["farmer-1"] = testFarmer()

	healthy := testCrop("quinoa", "vegetative", 10)
	broken := testCrop("quinoa", "vegetative", 10)
	broken.ID = "crop-2"
	st.crops["farmer-1"] = []models.Crop{healthy, broken}
	st.logs["crop-1"] = logDaysAgo(1)
	st.logErr["crop-2"] = errors.New("disk error")

	e := newTestEngine(st, &fakeWeather{current: weather.CurrentConditions{Temperature: 75}, forecast: dryForecast()}, 1.875)

	recs, err := e.GenerateRecommendations(context.Background(), "farmer-1")
	if err != nil {
		t.Fatalf("GenerateRecommendations: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1 (failure isolated per crop)", len(recs))
	}
	if recs[0].CropID != "crop-1" {
		t.Errorf("CropID = %q, want crop-1", recs[0].CropID)
	}
}
