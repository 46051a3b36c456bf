package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weathernews-agent/server/internal/agent/model"
)

func newWeatherServer(t *testing.T, geo, forecast http.HandlerFunc) *WeatherClient {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", geo)
	mux.HandleFunc("/v1/forecast", forecast)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewWeatherClient(model.WeatherConfig{GeocodingURL: srv.URL, ForecastURL: srv.URL})
}

func TestGetWeather(t *testing.T) {
	var gotName, gotLat string
	client := newWeatherServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			gotName = r.URL.Query().Get("name")
			assert.Equal(t, "1", r.URL.Query().Get("count"))
			fmt.Fprint(w, `{"results":[{"name":"Tokyo","latitude":35.6895,"longitude":139.69171}]}`)
		},
		func(w http.ResponseWriter, r *http.Request) {
			gotLat = r.URL.Query().Get("latitude")
			assert.Equal(t, "true", r.URL.Query().Get("current_weather"))
			fmt.Fprint(w, `{"current_weather":{"temperature":21.4,"windspeed":7.2,"weathercode":3}}`)
		},
	)

	out := client.GetWeather(context.Background(), "new york")
	assert.Equal(t, "new york", gotName)
	assert.Equal(t, "35.6895", gotLat)
	assert.Equal(t, "Weather in New York:\n- Temperature: 21.4 °C\n- Wind speed: 7.2 km/h\n- Weather code: 3", out)
}

func TestGetWeatherNotFound(t *testing.T) {
	var forecastCalls int32
	client := newWeatherServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"generationtime_ms":0.5}`)
		},
		func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&forecastCalls, 1)
		},
	)

	out := client.GetWeather(context.Background(), "Atlantis")
	assert.Contains(t, strings.ToLower(out), "could not find")
	assert.Contains(t, out, "Atlantis")
	assert.Zero(t, atomic.LoadInt32(&forecastCalls))
}

func TestGetWeatherEmptyCityMakesNoRequest(t *testing.T) {
	var calls int32
	count := func(w http.ResponseWriter, r *http.Request) { atomic.AddInt32(&calls, 1) }
	client := newWeatherServer(t, count, count)

	out := client.GetWeather(context.Background(), "  ")
	assert.Contains(t, out, "could not find")
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestGetWeatherFailures(t *testing.T) {
	okGeo := func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"latitude":1.5,"longitude":2.5}]}`)
	}
	tests := []struct {
		name     string
		geo      http.HandlerFunc
		forecast http.HandlerFunc
		want     string
	}{
		{
			name:     "geocoding 500",
			geo:      func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			forecast: func(w http.ResponseWriter, r *http.Request) {},
			want:     "HTTP 500",
		},
		{
			name:     "geocoding malformed",
			geo:      func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"results":[`) },
			forecast: func(w http.ResponseWriter, r *http.Request) {},
			want:     "malformed geocoding response",
		},
		{
			name:     "forecast 503",
			geo:      okGeo,
			forecast: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
			want:     "HTTP 503",
		},
		{
			name:     "forecast without current_weather",
			geo:      okGeo,
			forecast: func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"hourly":{}}`) },
			want:     "no current_weather",
		},
		{
			name: "forecast missing field",
			geo:  okGeo,
			forecast: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"current_weather":{"temperature":1}}`)
			},
			want: "no windspeed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newWeatherServer(t, tt.geo, tt.forecast)
			out := client.GetWeather(context.Background(), "Oslo")
			assert.True(t, strings.HasPrefix(out, "⚠️ Failed to fetch weather for Oslo"), out)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestGetWeatherUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewWeatherClient(model.WeatherConfig{GeocodingURL: srv.URL, ForecastURL: srv.URL})
	out := client.GetWeather(context.Background(), "Oslo")
	assert.Contains(t, out, "Failed to fetch weather for Oslo")
}
