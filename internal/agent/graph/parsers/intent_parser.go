package parsers

import (
	"strings"

	"github.com/weathernews-agent/server/internal/agent/model"
)

// ParseIntent maps the classifier's reply to an Intent. The reply is trimmed
// and must match a label exactly; anything else is IntentUnknown.
func ParseIntent(content string) model.Intent {
	switch label := model.Intent(strings.TrimSpace(content)); label {
	case model.IntentWeather, model.IntentNews, model.IntentBoth:
		return label
	default:
		return model.IntentUnknown
	}
}
