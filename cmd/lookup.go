package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-page/internal/chart"
	"github.com/vzahanych/weather-page/internal/config"
	"github.com/vzahanych/weather-page/internal/display"
	"github.com/vzahanych/weather-page/internal/orchestrator"
	"github.com/vzahanych/weather-page/internal/weather"
	"go.uber.org/zap"
)

type lookupOptions struct {
	imperial  bool
	asJSON    bool
	chartPath string
	compact   bool
}

func lookupCmd() *cobra.Command {
	opts := &lookupOptions{}

	cmd := &cobra.Command{
		Use:   "lookup <location>",
		Short: "Print the current weather and forecast for a location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.imperial, "imperial", false, "use imperial units (ºF, mph)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the page as JSON")
	cmd.Flags().StringVar(&opts.chartPath, "chart", "", "write the temperature trend chart to this HTML file")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "chart noon entries only")

	return cmd
}

func runLookup(cmd *cobra.Command, location string, opts *lookupOptions) error {
	cfg := config.GetConfig()

	units := weather.Metric
	if opts.imperial {
		units = weather.Imperial
	}

	page := orchestrator.New(cfg.Providers, units, log.Logger, tele)
	state, err := page.Fetch(cmd.Context(), location, units)
	if err != nil {
		if state.ErrorMessage != "" {
			return fmt.Errorf("%s", state.ErrorMessage)
		}
		return err
	}

	out := cmd.OutOrStdout()
	view := display.BuildPage(state)

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return err
		}
	} else {
		printPage(out, view)
	}

	if opts.chartPath != "" {
		f, err := os.Create(opts.chartPath)
		if err != nil {
			return fmt.Errorf("failed to create chart file: %w", err)
		}
		defer f.Close()

		if err := chart.RenderTemperatureTrend(f, state.Result.Forecast, units, opts.compact); err != nil {
			return err
		}
		log.Info("Chart written", zap.String("path", opts.chartPath))
	}

	return nil
}

func printPage(w io.Writer, p display.Page) {
	if c := p.Current; c != nil {
		fmt.Fprintf(w, "%s (%s)\n", c.Place, c.Coordinates)
		fmt.Fprintf(w, "%s %s, %s\n", c.ObservedAt, c.UTCOffset, c.Sunlight)
		fmt.Fprintf(w, "%s, %s. Feels like %s. %s\n", c.Temperature, c.Description, c.FeelsLike, c.MinMax)
		fmt.Fprintf(w, "Wind: %s", c.Wind)
		if c.Gust != "" {
			fmt.Fprintf(w, ", %s", c.Gust)
		}
		fmt.Fprintln(w)
		for _, line := range []struct{ label, value string }{
			{"Humidity", c.Humidity},
			{"Visibility", c.Visibility},
			{"Pressure", c.Pressure},
		} {
			if line.value != "" {
				fmt.Fprintf(w, "%s: %s\n", line.label, line.value)
			}
		}
		for _, p := range c.Precipitation {
			fmt.Fprintln(w, p)
		}
	}

	if len(p.Forecast) > 0 {
		fmt.Fprintln(w, "\n5 day forecast")
		for _, d := range p.Forecast {
			fmt.Fprintf(w, "  %s  %-6s min %-6s %s", d.Day, d.Temperature, d.Min, d.Description)
			if d.PrecipitationChance != "" {
				fmt.Fprintf(w, ", %s", d.PrecipitationChance)
			}
			fmt.Fprintln(w)
		}
	}

	if p.CoverImageURL != "" {
		fmt.Fprintf(w, "\nCover: %s\n", p.CoverImageURL)
	}
}
