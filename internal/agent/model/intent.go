package model

// Intent is the routing label produced by the classifier for a single turn.
type Intent string

const (
	IntentWeather Intent = "WEATHER"
	IntentNews    Intent = "NEWS"
	IntentBoth    Intent = "BOTH"
	IntentUnknown Intent = "UNKNOWN"
)

func (i Intent) String() string {
	return string(i)
}
