// Package features turns a travel context into the fixed-length numeric vector
// consumed by the recommender model. Training and inference both go through
// Encode, so the tables below must never be edited without retraining.
package features

import (
	"strings"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
)

// Dim is the length of every FeatureVector.
const Dim = 5

// UnknownCode is the code assigned to a missing or unrecognised category.
// Real categories start at 1.
const UnknownCode = 0

// FeatureVector is (month, budget, temperature, season, activity).
type FeatureVector [Dim]float64

// Slice returns the vector as a slice
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, Dim)
	copy(out, v[:])
	return out
}

// Field names a categorical input field.
type Field string

const (
	FieldMonth    Field = "Month"
	FieldSeason   Field = "Season"
	FieldBudget   Field = "Budget"
	FieldActivity Field = "Activity_Preference"
)

var monthCodes = map[string]int{
	"January": 1, "February": 2, "March": 3, "April": 4, "May": 5, "June": 6,
	"July": 7, "August": 8, "September": 9, "October": 10, "November": 11, "December": 12,
}

var seasonCodes = map[string]int{"Winter": 1, "Spring": 2, "Summer": 3, "Monsoon": 4, "Autumn": 5}

var budgetCodes = map[string]int{"Low": 1, "Medium": 2, "High": 3}

var activityCodes = map[string]int{"Adventure": 1, "Relaxation": 2, "Sightseeing": 3, "Eco Tourism": 4}

func tableFor(f Field) map[string]int {
	switch f {
	case FieldMonth:
		return monthCodes
	case FieldSeason:
		return seasonCodes
	case FieldBudget:
		return budgetCodes
	case FieldActivity:
		return activityCodes
	}
	return nil
}

// Presence records which categorical fields were recognised.
type Presence struct {
	Month    bool
	Season   bool
	Budget   bool
	Activity bool
}

// Complete reports whether every categorical field was recognised
func (p Presence) Complete() bool {
	return p.Month && p.Season && p.Budget && p.Activity
}

// Missing lists the fields that encoded to UnknownCode, in vector order.
func (p Presence) Missing() []Field {
	var out []Field
	if !p.Month {
		out = append(out, FieldMonth)
	}
	if !p.Budget {
		out = append(out, FieldBudget)
	}
	if !p.Season {
		out = append(out, FieldSeason)
	}
	if !p.Activity {
		out = append(out, FieldActivity)
	}
	return out
}

// Encode maps a record to its feature vector. Unknown categories become
// UnknownCode and a missing temperature becomes 0.
func Encode(r models.ContextRecord) FeatureVector {
	v, _ := EncodeDetailed(r)
	return v
}

// EncodeDetailed is Encode plus the per-field presence flags, so callers can
// tell an unknown category apart from a real one.
func EncodeDetailed(r models.ContextRecord) (FeatureVector, Presence) {
	month, okMonth := lookup(monthCodes, r.Month)
	budget, okBudget := lookup(budgetCodes, r.Budget)
	season, okSeason := lookup(seasonCodes, r.Season)
	activity, okActivity := lookup(activityCodes, r.ActivityPreference)

	v := FeatureVector{
		float64(month),
		float64(budget),
		r.TemperatureOrZero(),
		float64(season),
		float64(activity),
	}
	return v, Presence{Month: okMonth, Season: okSeason, Budget: okBudget, Activity: okActivity}
}

func lookup(table map[string]int, value string) (int, bool) {
	code, ok := table[value]
	if !ok {
		return UnknownCode, false
	}
	return code, true
}

// Normalize maps free text such as "eco tourism" or " june " onto the
// canonical member of the field's vocabulary. The second result is false
// when no member matches.
func Normalize(f Field, value string) (string, bool) {
	table := tableFor(f)
	if table == nil {
		return value, false
	}
	trimmed := strings.TrimSpace(value)
	if _, ok := table[trimmed]; ok {
		return trimmed, true
	}
	for name := range table {
		if strings.EqualFold(name, trimmed) {
			return name, true
		}
	}
	return trimmed, false
}

// Months lists the month vocabulary in code order.
func Months() []string { return ordered(monthCodes) }

// Seasons lists the season vocabulary in code order.
func Seasons() []string { return ordered(seasonCodes) }

// Budgets lists the budget tiers in code order.
func Budgets() []string { return ordered(budgetCodes) }

// Activities lists the activity categories in code order.
func Activities() []string { return ordered(activityCodes) }

func ordered(table map[string]int) []string {
	out := make([]string, len(table))
	for name, code := range table {
		out[code-1] = name
	}
	return out
}
