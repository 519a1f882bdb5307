package weather

import (
	"fmt"
	"strings"
)

type UnitSystem int

const (
	Metric UnitSystem = iota
	Imperial
)

// String returns the value the provider expects in its units parameter.
func (u UnitSystem) String() string {
	if u == Imperial {
		return "imperial"
	}
	return "metric"
}

func (u UnitSystem) IsMetric() bool {
	return u != Imperial
}

func ParseUnitSystem(s string) (UnitSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "metric", "":
		return Metric, nil
	case "imperial":
		return Imperial, nil
	default:
		return Metric, fmt.Errorf("unknown unit system %q", s)
	}
}

func (u UnitSystem) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *UnitSystem) UnmarshalText(text []byte) error {
	parsed, err := ParseUnitSystem(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Condition is one entry of the provider's weather array.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type MainFigures struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
	SeaLevel  float64 `json:"sea_level"`
	GrndLevel float64 `json:"grnd_level"`
}

type Wind struct {
	Speed float64  `json:"speed"`
	Deg   float64  `json:"deg"`
	Gust  *float64 `json:"gust,omitempty"`
}

// Volume is precipitation in mm over the last hour or three hours.
type Volume struct {
	OneHour   *float64 `json:"1h,omitempty"`
	ThreeHour *float64 `json:"3h,omitempty"`
}

type Clouds struct {
	All float64 `json:"all"`
}

type Sys struct {
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// Snapshot is the result of one current weather call.
type Snapshot struct {
	Coord      Coord       `json:"coord"`
	Conditions []Condition `json:"weather"`
	Main       MainFigures `json:"main"`
	Visibility float64     `json:"visibility"`
	Wind       Wind        `json:"wind"`
	Rain       *Volume     `json:"rain,omitempty"`
	Snow       *Volume     `json:"snow,omitempty"`
	Clouds     Clouds      `json:"clouds"`
	Dt         int64       `json:"dt"`
	Sys        Sys         `json:"sys"`
	Timezone   int         `json:"timezone"`
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
}

// PrimaryCondition returns the first condition, or a zero value when the
// provider sent none.
func (s *Snapshot) PrimaryCondition() Condition {
	if s == nil || len(s.Conditions) == 0 {
		return Condition{}
	}
	return s.Conditions[0]
}

// ForecastEntry is one 3-hour slot of the forecast.
type ForecastEntry struct {
	Dt         int64       `json:"dt"`
	DtTxt      string      `json:"dt_txt"`
	Main       MainFigures `json:"main"`
	Conditions []Condition `json:"weather"`
	Clouds     Clouds      `json:"clouds"`
	Wind       Wind        `json:"wind"`
	Visibility float64     `json:"visibility"`
	Pop        float64     `json:"pop"`
	Rain       *Volume     `json:"rain,omitempty"`
	Snow       *Volume     `json:"snow,omitempty"`
}

func (e ForecastEntry) PrimaryCondition() Condition {
	if len(e.Conditions) == 0 {
		return Condition{}
	}
	return e.Conditions[0]
}

type City struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Coord    Coord  `json:"coord"`
	Country  string `json:"country"`
	Timezone int    `json:"timezone"`
	Sunrise  int64  `json:"sunrise"`
	Sunset   int64  `json:"sunset"`
}

// Forecast is the 5 day / 3 hour series, oldest entry first.
type Forecast struct {
	Count int             `json:"cnt"`
	List  []ForecastEntry `json:"list"`
	City  City            `json:"city"`
}
