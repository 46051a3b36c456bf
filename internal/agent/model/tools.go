package model

import "context"

// WeatherProvider returns a user-facing weather block for a city. It reports
// problems in the returned text instead of failing.
type WeatherProvider interface {
	GetWeather(ctx context.Context, city string) string
}

// NewsProvider returns user-facing headlines for a query. It reports problems
// in the returned text instead of failing.
type NewsProvider interface {
	GetNews(ctx context.Context, query string) string
}
