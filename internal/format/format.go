// Package format turns raw provider numbers into the strings shown on the page.
// Every function is pure.
package format

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	celsius    = "ºC"
	fahrenheit = "ºF"
)

// compass labels, clockwise from north.
var directions = [...]string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

const bucketWidth = 360.0 / float64(len(directions))

// TemperatureUnit returns the unit label for the selected system.
func TemperatureUnit(metric bool) string {
	if metric {
		return celsius
	}
	return fahrenheit
}

// SpeedUnit returns the wind speed unit the provider reports in.
func SpeedUnit(metric bool) string {
	if metric {
		return "m/s"
	}
	return "mph"
}

// FormatTemperature rounds halves up, toward +Inf: 20.5 is 21 and -2.5 is -2.
// NaN is not guarded and renders as "NaN ºC".
func FormatTemperature(value float64, metric bool) string {
	rounded := math.Floor(value + 0.5)
	if math.IsNaN(rounded) {
		return "NaN " + TemperatureUnit(metric)
	}
	// int64 conversion folds -0 into 0
	return fmt.Sprintf("%d %s", int64(rounded), TemperatureUnit(metric))
}

func normalizeBearing(deg float64) float64 {
	compass := math.Mod(deg, 360)
	if compass < 0 {
		compass += 360
	}
	return compass
}

// WindDirection maps a bearing (degrees clockwise from north, any sign or
// magnitude) to one of 16 compass labels. Each label owns a 22.5° sector
// centred on it, so 11.25 is already NNE and 348.75 is N.
func WindDirection(deg float64) string {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return ""
	}
	idx := int(math.Round(normalizeBearing(deg)/bucketWidth)) % len(directions)
	return directions[idx]
}

// legacyWindDirection reproduces the earlier bucketing that divided by 45°
// while indexing the 16-label table. Only N..S are reachable and east comes
// out as NE. Kept to pin down how far WindDirection departs from it.
func legacyWindDirection(deg float64) string {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return ""
	}
	idx := int(math.Round(normalizeBearing(deg)/45)) % len(directions)
	return directions[idx]
}

// decimal formats v with at most two fractional digits and no trailing zeros.
func decimal(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

var english = message.NewPrinter(language.English)

// FormatVisibility converts meters to kilometers with English grouping:
// 1500 -> "1.5 km", 1234567 -> "1,234.57 km".
func FormatVisibility(meters float64) string {
	return english.Sprint(number.Decimal(meters/1000, number.MaxFractionDigits(2))) + " km"
}

// FormatUTCOffset renders a provider timezone shift in seconds as "UTC+2",
// "UTC-3.5" or plain "UTC".
func FormatUTCOffset(seconds int) string {
	if seconds == 0 {
		return "UTC"
	}
	hours := decimal(float64(seconds) / 3600)
	if seconds > 0 {
		return "UTC+" + hours
	}
	return "UTC" + hours
}

// FormatPrecipitationChance renders a 0..1 probability: 0.4 -> "40% of rain".
func FormatPrecipitationChance(pop float64) string {
	return decimal(pop*100) + "% of rain"
}

// FormatWind renders "3.6 m/s NE" and appends the gust when the provider
// reported one.
func FormatWind(speed, deg float64, gust *float64, metric bool) string {
	unit := SpeedUnit(metric)
	s := fmt.Sprintf("%s %s %s", decimal(speed), unit, WindDirection(deg))
	if gust != nil && *gust > 0 {
		s += fmt.Sprintf(", Gust at %s %s", decimal(*gust), unit)
	}
	return s
}
