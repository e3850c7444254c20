package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestSynthetic_CurrentShape(t *testing.T) {
	s := NewSynthetic()
	cur, err := s.Current(context.Background(), "Fresno, CA")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}

	if cur.Temperature < 82 || cur.Temperature > 92 {
		t.Errorf("warm-region temperature = %v, want [82, 92]", cur.Temperature)
	}
	if cur.Humidity < 45 || cur.Humidity > 75 {
		t.Errorf("humidity = %v, want [45, 75]", cur.Humidity)
	}
	if cur.UVIndex < 6 || cur.UVIndex > 10 {
		t.Errorf("uv index = %v, want [6, 10]", cur.UVIndex)
	}
	if cur.Condition != "Clear" && cur.Condition != "Clouds" {
		t.Errorf("condition = %q, want Clear or Clouds", cur.Condition)
	}
}

func TestSynthetic_StableWithinDay(t *testing.T) {
	s := NewSynthetic()
	a, err := s.Current(context.Background(), "Bakersfield, CA")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Current(context.Background(), "Bakersfield, CA")
	if err != nil {
		t.Fatal(err)
	}
	if a.Temperature != b.Temperature || a.Humidity != b.Humidity {
		t.Errorf("same-day synthetic readings differ: %+v vs %+v", a, b)
	}
}

func TestSynthetic_ForecastChronological(t *testing.T) {
	s := NewSynthetic()
	days, err := s.Forecast(context.Background(), "Des Moines, Iowa")
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("len(days) = %d, want 7", len(days))
	}
	for i := 1; i < len(days); i++ {
		if !days[i].Date.After(days[i-1].Date) {
			t.Errorf("forecast day %d (%v) not after day %d (%v)", i, days[i].Date, i-1, days[i-1].Date)
		}
	}
	for i, d := range days {
		if d.PrecipProbability < 0 || d.PrecipProbability > 100 {
			t.Errorf("day %d precip probability = %v, want [0, 100]", i, d.PrecipProbability)
		}
	}
}

func TestOpenWeather_Current(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather" {
			t.Errorf("path = %q, want /weather", r.URL.Path)
		}
		if got := r.URL.Query().Get("units"); got != "imperial" {
			t.Errorf("units = %q, want imperial", got)
		}
		w.Write([]byte(`{
			"main": {"temp": 88.5, "humidity": 40},
			"weather": [{"main": "Clear", "description": "clear sky"}],
			"wind": {"speed": 7.2},
			"uvi": 8.1,
			"rain": {"1h": 0.02}
		}`))
	}))
	defer srv.Close()

	ow := NewOpenWeather("test-key")
	ow.baseURL = srv.URL

	cur, err := ow.Current(context.Background(), "Fresno, CA")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.Temperature != 88.5 {
		t.Errorf("Temperature = %v, want 88.5", cur.Temperature)
	}
	if cur.Humidity != 40 {
		t.Errorf("Humidity = %v, want 40", cur.Humidity)
	}
	if cur.Condition != "Clear" {
		t.Errorf("Condition = %q, want Clear", cur.Condition)
	}
	if cur.UVIndex != 8.1 {
		t.Errorf("UVIndex = %v, want 8.1", cur.UVIndex)
	}
	if cur.Precipitation != 0.02 {
		t.Errorf("Precipitation = %v, want 0.02", cur.Precipitation)
	}
}

func TestOpenWeather_ForecastGroupsByDay(t *testing.T) {
	base := time.Date(2025, 7, 10, 6, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Two readings on day one, one on day two; only the first per day
		// should survive.
		body := `{"list": [
			{"dt": ` + unix(base) + `, "main": {"temp": 90, "humidity": 35}, "weather": [{"main": "Clear"}], "wind": {"speed": 5}, "pop": 0.1},
			{"dt": ` + unix(base.Add(3*time.Hour)) + `, "main": {"temp": 95, "humidity": 30}, "weather": [{"main": "Clear"}], "wind": {"speed": 6}, "pop": 0.2},
			{"dt": ` + unix(base.Add(24*time.Hour)) + `, "main": {"temp": 85, "humidity": 50}, "weather": [{"main": "Rain"}], "wind": {"speed": 4}, "pop": 0.8}
		]}`
		w.Write([]byte(body))
	}))
	defer srv.Close()

	ow := NewOpenWeather("test-key")
	ow.baseURL = srv.URL

	days, err := ow.Forecast(context.Background(), "Fresno, CA")
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("len(days) = %d, want 2", len(days))
	}
	if days[0].Temperature != 90 {
		t.Errorf("day 0 temp = %v, want 90 (first reading of the day)", days[0].Temperature)
	}
	if days[1].PrecipProbability != 80 {
		t.Errorf("day 1 precip probability = %v, want 80", days[1].PrecipProbability)
	}
}

func TestOpenWeather_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	ow := NewOpenWeather("bad-key")
	ow.baseURL = srv.URL

	if _, err := ow.Current(context.Background(), "Fresno, CA"); err == nil {
		t.Fatal("expected error for 401 response")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (401 is permanent)", calls)
	}
}

func unix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
