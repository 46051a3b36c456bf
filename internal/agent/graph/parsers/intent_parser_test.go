package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weathernews-agent/server/internal/agent/model"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		in   string
		want model.Intent
	}{
		{"WEATHER", model.IntentWeather},
		{"  NEWS\n", model.IntentNews},
		{"BOTH", model.IntentBoth},
		{"", model.IntentUnknown},
		{"weather", model.IntentUnknown},
		{"WEATHER.", model.IntentUnknown},
		{"UNKNOWN", model.IntentUnknown},
		{"I think WEATHER", model.IntentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIntent(tt.in))
		})
	}
}
