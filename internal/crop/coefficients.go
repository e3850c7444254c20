// Package crop holds static agronomic configuration: FAO-56 crop
// coefficients by growth stage, and nominal flow rates per irrigation method.
package crop

import "strings"

// DefaultCoefficient is used when a crop type or growth stage is not in the
// table. Unknown inputs degrade to this rather than failing.
const DefaultCoefficient = 0.8

// DefaultFlowRateGPM is used for unrecognized irrigation methods.
const DefaultFlowRateGPM = 15.0

// Kc values per FAO-56 guidelines, keyed by crop type then growth stage.
var coefficients = map[string]map[string]float64{
	"corn": {
		"seedling":   0.3,
		"vegetative": 0.7,
		"flowering":  1.2,
		"maturity":   0.6,
	},
	"tomatoes": {
		"seedling":   0.6,
		"vegetative": 0.8,
		"flowering":  1.15,
		"maturity":   0.8,
	},
	"wheat": {
		"seedling":   0.4,
		"vegetative": 0.7,
		"flowering":  1.15,
		"maturity":   0.4,
	},
	"soybeans": {
		"seedling":   0.5,
		"vegetative": 0.75,
		"flowering":  1.0,
		"maturity":   0.75,
	},
	"carrots": {
		"seedling":   0.7,
		"vegetative": 0.9,
		"flowering":  1.05,
		"maturity":   0.95,
	},
}

// Estimated delivery rates in gallons per minute.
var flowRates = map[string]float64{
	"drip":      2,
	"sprinkler": 15,
	"flood":     50,
	"pivot":     30,
	"furrow":    25,
}

// Coefficient returns the crop coefficient (Kc) for a crop type at a growth
// stage. Lookup is case-insensitive; unknown crops or stages return
// DefaultCoefficient.
func Coefficient(cropType, growthStage string) float64 {
	stages, ok := coefficients[strings.ToLower(cropType)]
	if !ok {
		return DefaultCoefficient
	}
	kc, ok := stages[strings.ToLower(growthStage)]
	if !ok {
		return DefaultCoefficient
	}
	return kc
}

// FlowRate returns the nominal flow rate in GPM for an irrigation method,
// case-insensitive, defaulting to DefaultFlowRateGPM.
func FlowRate(method string) float64 {
	if gpm, ok := flowRates[strings.ToLower(method)]; ok {
		return gpm
	}
	return DefaultFlowRateGPM
}
