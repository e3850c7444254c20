package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/furrowlabs/irrigated/internal/httputil"
	"github.com/furrowlabs/irrigated/internal/metrics"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// OpenWeather is the live Source backed by the OpenWeatherMap API.
type OpenWeather struct {
	apiKey  string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewOpenWeather(apiKey string) *OpenWeather {
	return &OpenWeather{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  httputil.NewClient(),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "openweather",
			Interval: 60 * time.Second,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

type currentResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	UVI  float64 `json:"uvi"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Pop float64 `json:"pop"` // probability of precipitation, 0-1
	} `json:"list"`
}

func (o *OpenWeather) Current(ctx context.Context, location string) (*CurrentConditions, error) {
	body, err := o.fetch(ctx, "weather", location)
	if err != nil {
		return nil, err
	}

	var data currentResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode current weather: %w", err)
	}
	if len(data.Weather) == 0 {
		return nil, fmt.Errorf("current weather: empty conditions for %q", location)
	}

	return &CurrentConditions{
		Temperature:   data.Main.Temp,
		Humidity:      data.Main.Humidity,
		WindSpeed:     data.Wind.Speed,
		Precipitation: data.Rain.OneHour,
		Condition:     data.Weather[0].Main,
		Description:   data.Weather[0].Description,
		UVIndex:       data.UVI,
	}, nil
}

func (o *OpenWeather) Forecast(ctx context.Context, location string) ([]ForecastDay, error) {
	body, err := o.fetch(ctx, "forecast", location)
	if err != nil {
		return nil, err
	}

	var data forecastResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	// The API returns 3-hourly entries; keep the first reading per calendar
	// day, up to 7 days.
	var days []ForecastDay
	seen := make(map[string]bool)
	for _, item := range data.List {
		ts := time.Unix(item.Dt, 0).UTC()
		key := ts.Format("2006-01-02")
		if seen[key] || len(days) >= 7 {
			continue
		}
		seen[key] = true

		condition := ""
		if len(item.Weather) > 0 {
			condition = item.Weather[0].Main
		}
		days = append(days, ForecastDay{
			Date:              ts,
			Temperature:       item.Main.Temp,
			Humidity:          item.Main.Humidity,
			WindSpeed:         item.Wind.Speed,
			Condition:         condition,
			PrecipProbability: item.Pop * 100,
		})
	}
	return days, nil
}

// fetch performs one API call through the circuit breaker, retrying transient
// failures with exponential backoff. Auth and client errors are permanent.
func (o *OpenWeather) fetch(ctx context.Context, endpoint, location string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s?q=%s&units=imperial&appid=%s",
		o.baseURL, endpoint, url.QueryEscape(location), o.apiKey)

	result, err := o.breaker.Execute(func() (any, error) {
		var body []byte
		operation := func() error {
			start := time.Now()
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return backoff.Permanent(err)
			}
			resp, err := o.client.Do(req)
			metrics.WeatherAPILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.WeatherAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
				return fmt.Errorf("fetch %s: %w", endpoint, err)
			}
			defer resp.Body.Close()

			metrics.WeatherAPICallsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

			switch {
			case resp.StatusCode == http.StatusOK:
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("fetch %s: status %d", endpoint, resp.StatusCode)
			default:
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
				return backoff.Permanent(fmt.Errorf("fetch %s: status %d: %s", endpoint, resp.StatusCode, string(b)))
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("read %s body: %w", endpoint, err))
			}
			return nil
		}

		bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
		if err := backoff.Retry(operation, bo); err != nil {
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
