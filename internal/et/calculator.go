// Package et computes reference evapotranspiration (ET0) using the FAO-56
// Penman-Monteith equation, adapted to estimate solar radiation from UV index
// since the weather feeds we read from carry no radiation measurement.
package et

import (
	"math"
	"time"
)

const (
	solarConstant   = 0.0820   // MJ/m²/min
	stefanBoltzmann = 4.903e-9 // MJ/K⁴/m²/day
	albedo          = 0.23     // reference grass surface
	mmToInches      = 0.0393701

	// Rs ≈ UVIndex × uvRadiationFactor (MJ/m²/day), capped at clear-sky.
	uvRadiationFactor = 2.5
)

// Inputs are the atmospheric readings for a single daily calculation.
// Values are accepted as-is; the pipeline is pure arithmetic and does not
// validate physical plausibility.
type Inputs struct {
	TemperatureF float64
	Humidity     float64 // relative humidity, 0-100
	WindSpeedMPH float64
	UVIndex      float64
	Latitude     float64 // decimal degrees
	ElevationM   float64
	Date         time.Time // drives day-of-year solar geometry
}

// Calculate returns reference evapotranspiration in inches/day, never
// negative. The denominator term delta + gamma*(1 + 0.34*u2) is >= gamma for
// any non-negative wind speed, so zero wind cannot divide by zero.
func Calculate(in Inputs) float64 {
	tempC := (in.TemperatureF - 32) * 5 / 9
	rh := in.Humidity / 100
	u2 := in.WindSpeedMPH * 0.44704 // mph -> m/s

	// Atmospheric pressure (kPa) from elevation, and psychrometric constant.
	p := 101.3 * math.Pow((293-0.0065*in.ElevationM)/293, 5.26)
	gamma := 0.665e-3 * p

	// Saturation and actual vapor pressure (kPa), Tetens form.
	es := 0.6108 * math.Exp((17.27*tempC)/(tempC+237.3))
	ea := es * rh

	// Slope of the saturation vapor pressure curve (kPa/°C).
	delta := (4098 * es) / math.Pow(tempC+237.3, 2)

	// Solar geometry for the day of year.
	doy := float64(in.Date.YearDay())
	decl := 0.409 * math.Sin((2*math.Pi/365)*doy-1.39)
	latRad := in.Latitude * math.Pi / 180
	omega := math.Acos(clamp(-math.Tan(latRad)*math.Tan(decl), -1, 1))
	dr := 1 + 0.033*math.Cos((2*math.Pi/365)*doy)

	// Extraterrestrial and clear-sky radiation (MJ/m²/day).
	ra := (24 * 60 / math.Pi) * solarConstant * dr *
		(omega*math.Sin(latRad)*math.Sin(decl) + math.Cos(latRad)*math.Cos(decl)*math.Sin(omega))
	rso := (0.75 + 2e-5*in.ElevationM) * ra

	// Incoming solar radiation from the UV proxy, capped at clear-sky.
	rs := math.Min(in.UVIndex*uvRadiationFactor, rso)

	// Net shortwave and longwave radiation. Daily temperature swing is
	// assumed at +15/-5 °C around the current reading.
	rns := (1 - albedo) * rs
	tmaxK := tempC + 15 + 273.16
	tminK := tempC - 5 + 273.16
	// Above the polar circle in winter omega clamps to zero, so ra and rso
	// are both zero. The cloudiness ratio rs/rso is undefined there; with no
	// incoming radiation the net longwave correction is dropped.
	rnl := 0.0
	if rso > 0 {
		rnl = stefanBoltzmann * ((math.Pow(tmaxK, 4) + math.Pow(tminK, 4)) / 2) *
			(0.34 - 0.14*math.Sqrt(ea)) * (1.35*(rs/rso) - 0.35)
	}
	rn := rns - rnl

	// FAO-56 Penman-Monteith, soil heat flux G taken as zero at daily scale.
	num := 0.408*delta*rn + gamma*(900/(tempC+273))*u2*(es-ea)
	den := delta + gamma*(1+0.34*u2)
	et0 := num / den

	return math.Max(0, et0*mmToInches)
}

// VaporPressureDeficit returns es - ea (kPa) for the given temperature and
// relative humidity. Exposed for regression checks on the ET pipeline.
func VaporPressureDeficit(temperatureF, humidity float64) float64 {
	tempC := (temperatureF - 32) * 5 / 9
	es := 0.6108 * math.Exp((17.27*tempC)/(tempC+237.3))
	return es * (1 - humidity/100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
