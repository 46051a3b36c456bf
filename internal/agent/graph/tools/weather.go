package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/weathernews-agent/server/internal/agent/model"
	logx "github.com/weathernews-agent/server/pkg/logger"
)

// WeatherClient looks up current conditions on Open-Meteo.
type WeatherClient struct {
	client       *http.Client
	geocodingURL string
	forecastURL  string
}

func NewWeatherClient(cfg model.WeatherConfig) *WeatherClient {
	return &WeatherClient{
		client:       newHTTPClient(),
		geocodingURL: cfg.GeocodingURL,
		forecastURL:  cfg.ForecastURL,
	}
}

// GetWeather returns a formatted block of current conditions for city.
// Unknown cities and transport failures come back as readable text, never as errors.
func (w *WeatherClient) GetWeather(ctx context.Context, city string) string {
	city = strings.TrimSpace(city)
	if city == "" {
		logx.Debug().Msg("weather requested without a location")
		return "Sorry, I could not find weather data because no location was given. Which city do you mean?"
	}

	lat, lon, found, err := w.geocode(ctx, city)
	if err != nil {
		logx.Warn().Err(err).Str("city", city).Msg("geocoding failed")
		return fmt.Sprintf("⚠️ Failed to fetch weather for %s: %v", city, err)
	}
	if !found {
		logx.Debug().Str("city", city).Msg("geocoding returned no results")
		return fmt.Sprintf("Sorry, I could not find weather data for %s.", city)
	}

	current, err := w.currentWeather(ctx, lat, lon)
	if err != nil {
		logx.Warn().Err(err).Str("city", city).Msg("forecast failed")
		return fmt.Sprintf("⚠️ Failed to fetch weather for %s: %v", city, err)
	}

	return fmt.Sprintf(
		"Weather in %s:\n- Temperature: %s °C\n- Wind speed: %s km/h\n- Weather code: %s",
		cases.Title(language.Und).String(city),
		current.Get("temperature").Raw,
		current.Get("windspeed").Raw,
		current.Get("weathercode").Raw,
	)
}

func (w *WeatherClient) geocode(ctx context.Context, city string) (lat, lon float64, found bool, err error) {
	body, err := getJSON(ctx, w.client, w.geocodingURL, "/v1/search", url.Values{
		"name":  {city},
		"count": {"1"},
	})
	if err != nil {
		return 0, 0, false, err
	}
	if !gjson.ValidBytes(body) {
		return 0, 0, false, errors.New("malformed geocoding response")
	}

	results := gjson.GetBytes(body, "results")
	if !results.Exists() {
		return 0, 0, false, nil
	}
	first := results.Get("0")
	if !first.Exists() {
		return 0, 0, false, nil
	}
	latV, lonV := first.Get("latitude"), first.Get("longitude")
	if latV.Type != gjson.Number || lonV.Type != gjson.Number {
		return 0, 0, false, errors.New("geocoding result has no coordinates")
	}
	return latV.Float(), lonV.Float(), true, nil
}

func (w *WeatherClient) currentWeather(ctx context.Context, lat, lon float64) (gjson.Result, error) {
	body, err := getJSON(ctx, w.client, w.forecastURL, "/v1/forecast", url.Values{
		"latitude":        {fmt.Sprint(lat)},
		"longitude":       {fmt.Sprint(lon)},
		"current_weather": {"true"},
	})
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.New("malformed forecast response")
	}

	current := gjson.GetBytes(body, "current_weather")
	if !current.IsObject() {
		return gjson.Result{}, errors.New("forecast response has no current_weather")
	}
	for _, field := range []string{"temperature", "windspeed", "weathercode"} {
		if !current.Get(field).Exists() {
			return gjson.Result{}, fmt.Errorf("current_weather has no %s", field)
		}
	}
	return current, nil
}
