package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTemperature(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		metric bool
		want   string
	}{
		{"rounds down", 20.4, true, "20 ºC"},
		{"rounds up", 20.6, false, "21 ºF"},
		{"half rounds up", 20.5, true, "21 ºC"},
		{"negative half rounds up", -2.5, true, "-2 ºC"},
		{"negative half to zero", -0.5, true, "0 ºC"},
		{"winter half", -10.5, false, "-10 ºF"},
		{"negative", -3.7, true, "-4 ºC"},
		{"negative zero", -0.4, true, "0 ºC"},
		{"nan", math.NaN(), false, "NaN ºF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTemperature(tt.value, tt.metric))
		})
	}
}

func TestWindDirection(t *testing.T) {
	tests := []struct {
		deg  float64
		want string
	}{
		{0, "N"},
		{360, "N"},
		{720, "N"},
		{-10, "N"},
		{11.24, "N"},
		{11.25, "NNE"},
		{22.5, "NNE"},
		{45, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{202.5, "SSW"},
		{270, "W"},
		{-90, "W"},
		{315, "NW"},
		{337.5, "NNW"},
		{348.75, "N"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, WindDirection(tt.deg), "bearing %v", tt.deg)
	}
}

func TestWindDirection_NonFinite(t *testing.T) {
	assert.Empty(t, WindDirection(math.NaN()))
	assert.Empty(t, WindDirection(math.Inf(1)))
}

func TestWindDirection_LegacyBucketing(t *testing.T) {
	assert.Equal(t, "N", legacyWindDirection(0))
	assert.Equal(t, "N", legacyWindDirection(360))
	assert.Equal(t, "NNE", legacyWindDirection(45))
	// east lands on NE with the 45 degree divisor
	assert.Equal(t, "NE", legacyWindDirection(90))
	assert.Equal(t, "S", legacyWindDirection(350))
	assert.Equal(t, "S", legacyWindDirection(-10))
}

func TestFormatVisibility(t *testing.T) {
	assert.Equal(t, "10 km", FormatVisibility(10000))
	assert.Equal(t, "1.5 km", FormatVisibility(1500))
	assert.Equal(t, "0.12 km", FormatVisibility(123))
	assert.Equal(t, "0 km", FormatVisibility(0))
	assert.Equal(t, "1,234.57 km", FormatVisibility(1234567))
}

func TestUnits(t *testing.T) {
	assert.Equal(t, "m/s", SpeedUnit(true))
	assert.Equal(t, "mph", SpeedUnit(false))
	assert.Equal(t, "ºC", TemperatureUnit(true))
	assert.Equal(t, "ºF", TemperatureUnit(false))
}

func TestFormatUTCOffset(t *testing.T) {
	assert.Equal(t, "UTC", FormatUTCOffset(0))
	assert.Equal(t, "UTC+2", FormatUTCOffset(7200))
	assert.Equal(t, "UTC-3.5", FormatUTCOffset(-12600))
	assert.Equal(t, "UTC+5.75", FormatUTCOffset(20700))
}

func TestFormatPrecipitationChance(t *testing.T) {
	assert.Equal(t, "40% of rain", FormatPrecipitationChance(0.4))
	assert.Equal(t, "100% of rain", FormatPrecipitationChance(1))
	assert.Equal(t, "12.5% of rain", FormatPrecipitationChance(0.125))
}

func TestFormatWind(t *testing.T) {
	gust := 5.2
	assert.Equal(t, "3.6 m/s NE", FormatWind(3.6, 44, nil, true))
	assert.Equal(t, "8 mph S, Gust at 5.2 mph", FormatWind(8, 180, &gust, false))

	zero := 0.0
	assert.Equal(t, "1 m/s N", FormatWind(1, 0, &zero, true))
}
