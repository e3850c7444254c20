package weather

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"
)

// Synthetic generates plausible weather without any upstream API. Output is
// seeded by location and calendar day, so repeated calls within a day agree
// with each other and tests get stable values.
type Synthetic struct {
	now func() time.Time
}

func NewSynthetic() *Synthetic {
	return &Synthetic{now: time.Now}
}

func (s *Synthetic) Current(ctx context.Context, location string) (*CurrentConditions, error) {
	rng := s.rng(location, 0)
	warm := warmRegion(location)

	temp := 68 + rng.Float64()*15
	if warm {
		temp = 82 + rng.Float64()*10
	}

	cond, desc := "Clear", "clear sky"
	if rng.Float64() >= 0.8 {
		cond, desc = "Clouds", "few clouds"
	}
	precip := 0.0
	if rng.Float64() < 0.2 {
		precip = rng.Float64() * 0.5
	}

	return &CurrentConditions{
		Temperature:   temp,
		Humidity:      45 + rng.Float64()*30,
		WindSpeed:     3 + rng.Float64()*8,
		Precipitation: precip,
		Condition:     cond,
		Description:   desc,
		UVIndex:       6 + rng.Float64()*4,
	}, nil
}

func (s *Synthetic) Forecast(ctx context.Context, location string) ([]ForecastDay, error) {
	warm := warmRegion(location)
	now := s.now()

	days := make([]ForecastDay, 0, 7)
	for i := 0; i < 7; i++ {
		rng := s.rng(location, i+1)

		temp := 65 + rng.Float64()*18
		if warm {
			temp = 80 + rng.Float64()*12
		}
		cond := "Clear"
		if rng.Float64() >= 0.7 {
			cond = "Clouds"
		}

		days = append(days, ForecastDay{
			Date:              now.AddDate(0, 0, i),
			Temperature:       temp,
			Humidity:          40 + rng.Float64()*35,
			WindSpeed:         2 + rng.Float64()*10,
			Condition:         cond,
			PrecipProbability: rng.Float64() * 40,
		})
	}
	return days, nil
}

func (s *Synthetic) rng(location string, salt int) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(location)))
	day := s.now().UTC().Format("2006-01-02")
	h.Write([]byte(day))
	return rand.New(rand.NewSource(int64(h.Sum64()) + int64(salt)))
}

func warmRegion(location string) bool {
	l := strings.ToLower(location)
	return strings.Contains(l, "ca") || strings.Contains(l, "florida")
}
