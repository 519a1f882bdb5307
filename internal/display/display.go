// Package display builds the page model: the strings shown for the current
// conditions and the daily forecast, in the selected unit system.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/vzahanych/weather-page/internal/format"
	"github.com/vzahanych/weather-page/internal/orchestrator"
	"github.com/vzahanych/weather-page/internal/weather"
)

const (
	hourFormat     = "15:04"
	dayFormat      = "Mon 02"
	fullDayFormat  = "2006-01-02 15:04"
	providerLayout = "2006-01-02 15:04:05"
	noonTime       = "12:00:00"
)

type CurrentView struct {
	Place         string   `json:"place"`
	Coordinates   string   `json:"coordinates"`
	ObservedAt    string   `json:"observed_at"`
	UTCOffset     string   `json:"utc_offset"`
	Sunlight      string   `json:"sunlight"`
	Temperature   string   `json:"temperature"`
	MinMax        string   `json:"min_max"`
	FeelsLike     string   `json:"feels_like"`
	Condition     string   `json:"condition"`
	Description   string   `json:"description"`
	IconURL       string   `json:"icon_url,omitempty"`
	Cloudiness    string   `json:"cloudiness,omitempty"`
	Wind          string   `json:"wind"`
	Gust          string   `json:"gust,omitempty"`
	Humidity      string   `json:"humidity,omitempty"`
	Visibility    string   `json:"visibility,omitempty"`
	Pressure      string   `json:"pressure,omitempty"`
	Precipitation []string `json:"precipitation,omitempty"`
}

type DayView struct {
	Day                 string `json:"day"`
	Time                string `json:"time"`
	Temperature         string `json:"temperature"`
	FeelsLike           string `json:"feels_like"`
	Min                 string `json:"min"`
	Description         string `json:"description"`
	IconURL             string `json:"icon_url,omitempty"`
	Humidity            string `json:"humidity"`
	Visibility          string `json:"visibility"`
	Pressure            string `json:"pressure"`
	GroundLevel         string `json:"ground_level"`
	SeaLevel            string `json:"sea_level"`
	PrecipitationChance string `json:"precipitation_chance,omitempty"`
	Wind                string `json:"wind,omitempty"`
	Rain                string `json:"rain,omitempty"`
	Snow                string `json:"snow,omitempty"`
}

// Page is what the HTTP surface serves for GET /state.
type Page struct {
	Location      string       `json:"location"`
	Units         string       `json:"units"`
	IsLoading     bool         `json:"is_loading"`
	ErrorMessage  string       `json:"error_message,omitempty"`
	CoverImageURL string       `json:"cover_image_url,omitempty"`
	Current       *CurrentView `json:"current,omitempty"`
	Forecast      []DayView    `json:"forecast,omitempty"`
}

func iconURL(icon string) string {
	if icon == "" {
		return ""
	}
	return fmt.Sprintf("https://openweathermap.org/img/wn/%s@2x.png", icon)
}

func number(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// Current formats a snapshot. Times are shown in the location's own offset.
func Current(s *weather.Snapshot, metric bool) *CurrentView {
	if s == nil {
		return nil
	}

	zone := time.FixedZone(format.FormatUTCOffset(s.Timezone), s.Timezone)
	clock := func(unix int64) string {
		return time.Unix(unix, 0).In(zone).Format(hourFormat)
	}

	cond := s.PrimaryCondition()
	speedUnit := format.SpeedUnit(metric)

	v := &CurrentView{
		Place:       place(s.Name, s.Sys.Country),
		Coordinates: fmt.Sprintf("%s, %s", number(s.Coord.Lat), number(s.Coord.Lon)),
		ObservedAt:  clock(s.Dt),
		UTCOffset:   format.FormatUTCOffset(s.Timezone),
		Sunlight:    fmt.Sprintf("Sunlight: %s - %s", clock(s.Sys.Sunrise), clock(s.Sys.Sunset)),
		Temperature: format.FormatTemperature(s.Main.Temp, metric),
		MinMax: fmt.Sprintf("Min: %s | Max: %s",
			format.FormatTemperature(s.Main.TempMin, metric),
			format.FormatTemperature(s.Main.TempMax, metric)),
		FeelsLike:   format.FormatTemperature(s.Main.FeelsLike, metric),
		Condition:   cond.Main,
		Description: cond.Description,
		IconURL:     iconURL(cond.Icon),
		Wind:        fmt.Sprintf("%s %s %s", number(s.Wind.Speed), speedUnit, format.WindDirection(s.Wind.Deg)),
	}

	if s.Clouds.All > 0 {
		v.Cloudiness = number(s.Clouds.All) + "%"
	}
	if s.Wind.Gust != nil && *s.Wind.Gust > 0 {
		v.Gust = fmt.Sprintf("Gust at %s %s", number(*s.Wind.Gust), speedUnit)
	}
	if s.Main.Humidity > 0 {
		v.Humidity = number(s.Main.Humidity) + "%"
	}
	if s.Visibility > 0 {
		v.Visibility = format.FormatVisibility(s.Visibility)
	}
	if s.Main.Pressure > 0 {
		v.Pressure = number(s.Main.Pressure) + " hPa"
	}
	if s.Rain != nil && s.Rain.OneHour != nil && *s.Rain.OneHour > 0 {
		v.Precipitation = append(v.Precipitation, fmt.Sprintf("Rain: %s mm/h in the last 1h", number(*s.Rain.OneHour)))
	}
	if s.Snow != nil && s.Snow.OneHour != nil && *s.Snow.OneHour > 0 {
		v.Precipitation = append(v.Precipitation, fmt.Sprintf("Snow: %s mm/h in the last 1h", number(*s.Snow.OneHour)))
	}

	return v
}

func place(name, country string) string {
	switch {
	case name == "":
		return country
	case country == "":
		return name
	default:
		return name + ", " + country
	}
}

// Daily keeps one forecast entry per day, the one at noon.
func Daily(f *weather.Forecast, metric bool) []DayView {
	if f == nil {
		return nil
	}

	days := make([]DayView, 0, 5)
	for _, e := range f.List {
		if !strings.Contains(e.DtTxt, noonTime) {
			continue
		}
		days = append(days, day(e, metric))
	}
	return days
}

func day(e weather.ForecastEntry, metric bool) DayView {
	cond := e.PrimaryCondition()

	v := DayView{
		Day:         e.DtTxt,
		Time:        e.DtTxt,
		Temperature: format.FormatTemperature(e.Main.Temp, metric),
		FeelsLike:   "Feels like " + format.FormatTemperature(e.Main.FeelsLike, metric),
		Min:         format.FormatTemperature(e.Main.TempMin, metric),
		Description: cond.Description,
		IconURL:     iconURL(cond.Icon),
		Humidity:    number(e.Main.Humidity) + "% Humidity",
		Visibility:  number(e.Visibility) + " m",
		Pressure:    number(e.Main.Pressure) + " hPa",
		GroundLevel: number(e.Main.GrndLevel) + " hPa",
		SeaLevel:    number(e.Main.SeaLevel) + " hPa",
	}

	if ts, err := time.Parse(providerLayout, e.DtTxt); err == nil {
		v.Day = ts.Format(dayFormat)
		v.Time = ts.Format(fullDayFormat)
	}
	if e.Clouds.All > 0 {
		v.Description = fmt.Sprintf("%s (%s%%)", v.Description, number(e.Clouds.All))
	}
	if e.Pop > 0 {
		v.PrecipitationChance = format.FormatPrecipitationChance(e.Pop)
	}
	if e.Wind.Speed > 0 {
		v.Wind = format.FormatWind(e.Wind.Speed, e.Wind.Deg, e.Wind.Gust, metric)
	}
	if e.Rain != nil && e.Rain.ThreeHour != nil {
		v.Rain = number(*e.Rain.ThreeHour) + " mm of rain for last 3 hours"
	}
	if e.Snow != nil && e.Snow.ThreeHour != nil {
		v.Snow = number(*e.Snow.ThreeHour) + " mm of snow for last 3 hours"
	}

	return v
}

// BuildPage renders a ViewState. The result part is formatted in the units it
// was fetched with, which can differ from the selected units mid-fetch.
func BuildPage(state orchestrator.ViewState) Page {
	p := Page{
		Location:     state.Location,
		Units:        state.Units.String(),
		IsLoading:    state.IsLoading,
		ErrorMessage: state.ErrorMessage,
	}

	if r := state.Result; r != nil {
		metric := r.Units.IsMetric()
		p.CoverImageURL = r.CoverImageURL
		p.Current = Current(r.Weather, metric)
		p.Forecast = Daily(r.Forecast, metric)
	}

	return p
}
