package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/features"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/weather"
)

// recordFlags are the trip-context flags shared by recommend and plan
type recordFlags struct {
	month       string
	season      string
	budget      string
	activity    string
	temperature float64
	weather     string
	groupSize   int
	city        string
	place       string
}

func (f *recordFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.month, "month", "", "travel month ("+strings.Join(features.Months(), ", ")+")")
	fs.StringVar(&f.season, "season", "", "season ("+strings.Join(features.Seasons(), ", ")+")")
	fs.StringVar(&f.budget, "budget", "", "budget ("+strings.Join(features.Budgets(), ", ")+")")
	fs.StringVar(&f.activity, "activity", "", "activity preference ("+strings.Join(features.Activities(), ", ")+")")
	fs.Float64Var(&f.temperature, "temperature", 0, "temperature in °C (default: live weather)")
	fs.StringVar(&f.weather, "weather", "", "weather condition (default: live weather)")
	fs.IntVar(&f.groupSize, "group-size", 2, "number of travellers")
	fs.StringVar(&f.city, "city", "", "city for the live weather lookup (default: located from IP)")
	fs.StringVar(&f.place, "place", "", "destination actually chosen, if known")
}

// record builds a ContextRecord from the flags. Categorical values outside
// the known codes are kept as typed and a warning lists the fields that will
// encode as unknown.
func (f *recordFlags) record(cmd *cobra.Command) models.ContextRecord {
	r := models.ContextRecord{
		Month:              normalizeFlag(features.FieldMonth, f.month),
		Season:             normalizeFlag(features.FieldSeason, f.season),
		Budget:             normalizeFlag(features.FieldBudget, f.budget),
		ActivityPreference: normalizeFlag(features.FieldActivity, f.activity),
		Weather:            f.weather,
		SuggestedPlace:     strings.TrimSpace(f.place),
	}
	if cmd.Flags().Changed("temperature") {
		r.Temperature = models.Float64(f.temperature)
	}
	if f.groupSize > 0 {
		r.GroupSize = models.Int(f.groupSize)
	} else {
		color.Yellow("Invalid group size %d, using 2", f.groupSize)
		r.GroupSize = models.Int(2)
	}
	if missing := unknownFields(r); len(missing) > 0 {
		color.Yellow("Not given or not recognised: %s (treated as unknown)", joinFields(missing))
	}
	return r
}

func normalizeFlag(field features.Field, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	v, _ := features.Normalize(field, value)
	return v
}

// unknownFields returns the categorical fields of r that encode as unknown
func unknownFields(r models.ContextRecord) []features.Field {
	_, presence := features.EncodeDetailed(r)
	if presence.Complete() {
		return nil
	}
	return presence.Missing()
}

func joinFields(fields []features.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func printSuggestions(suggestions []models.Suggestion) {
	if len(suggestions) == 0 {
		color.Yellow("No recommendations yet: train the model first (travel train).")
		return
	}

	fmt.Println(color.CyanString("Suggested travel destinations:"))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Rank", "Place", "Probability"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, s := range suggestions {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			s.Place,
			fmt.Sprintf("%.3f", s.Probability),
		})
	}
	table.Render()
}

func formatTemperature(t *float64) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *t)
}

func formatGroupSize(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *n)
}

// fillWeather sets Temperature and Weather from a live lookup when the
// caller did not supply them
func fillWeather(cmd *cobra.Command, lookup weatherSource, r *models.ContextRecord, city string) {
	if r.Temperature != nil && r.Weather != "" {
		return
	}
	reading := lookup.Current(cmd.Context(), city)
	if r.Temperature == nil {
		r.Temperature = models.Float64(reading.Temperature)
	}
	if r.Weather == "" {
		r.Weather = reading.Condition
	}

	source := color.GreenString("live")
	if !reading.Live {
		source = color.YellowString("fallback")
	}
	fmt.Printf("Weather in %s: %.1f°C, %s (%s)\n", reading.City, reading.Temperature, reading.Condition, source)
}

type weatherSource interface {
	Current(ctx context.Context, city string) weather.Reading
}
