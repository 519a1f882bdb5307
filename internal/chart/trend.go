// Package chart renders the forecast temperature trend as an HTML line chart.
package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/vzahanych/weather-page/internal/format"
	"github.com/vzahanych/weather-page/internal/weather"
)

const (
	noonTime     = "12:00:00"
	midnightTime = "00:00:00"

	providerLayout = "2006-01-02 15:04:05"
	labelLayout    = "Mon 02, 15:04"
	compactLayout  = "15:04"
)

var ErrNoForecast = errors.New("no forecast to chart")

type Point struct {
	At          time.Time
	Label       string
	Temperature float64
}

// TrendPoints picks the noon and midnight slots of the forecast. Compact mode,
// meant for narrow screens, keeps noon only.
func TrendPoints(f *weather.Forecast, compact bool) []Point {
	if f == nil {
		return nil
	}

	layout := labelLayout
	if compact {
		layout = compactLayout
	}

	points := make([]Point, 0, len(f.List)/4+1)
	for _, e := range f.List {
		keep := strings.Contains(e.DtTxt, noonTime)
		if !compact {
			keep = keep || strings.Contains(e.DtTxt, midnightTime)
		}
		if !keep {
			continue
		}

		at, err := time.Parse(providerLayout, e.DtTxt)
		if err != nil {
			continue
		}

		points = append(points, Point{
			At:          at,
			Label:       at.Format(layout),
			Temperature: e.Main.Temp,
		})
	}

	return points
}

// TemperatureTrend builds the line chart for the forecast.
func TemperatureTrend(f *weather.Forecast, units weather.UnitSystem, compact bool) (*charts.Line, error) {
	points := TrendPoints(f, compact)
	if len(points) == 0 {
		return nil, ErrNoForecast
	}

	unit := format.TemperatureUnit(units.IsMetric())

	labels := make([]string, 0, len(points))
	data := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.Label)
		data = append(data, opts.LineData{Name: p.Label, Value: p.Temperature})
	}

	title := "5 day forecast"
	if f.City.Name != "" {
		title = fmt.Sprintf("5 day forecast for %s", f.City.Name)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "900px",
			Height:    "400px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  fmt.Sprintf("Temperature (%s)", unit),
			Scale: opts.Bool(true),
		}),
	)

	line.SetXAxis(labels).
		AddSeries("Temp", data).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{c}º",
			}),
		)

	return line, nil
}

// RenderTemperatureTrend writes the chart as a standalone HTML page.
func RenderTemperatureTrend(w io.Writer, f *weather.Forecast, units weather.UnitSystem, compact bool) error {
	line, err := TemperatureTrend(f, units, compact)
	if err != nil {
		return err
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
