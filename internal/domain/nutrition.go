package domain

import (
	"strconv"
	"strings"
)

const notAvailable = "N/A"

// NutritionRecord holds the facts of the first product matching a query.
// Nutrient values are per 100g; nil means the database did not list it.
type NutritionRecord struct {
	Name          string
	Brand         string
	ServingSize   string
	Calories      *float64
	Protein       *float64
	Carbohydrates *float64
	Sugars        *float64
	Fat           *float64
	SaturatedFat  *float64
	Fiber         *float64
	Salt          *float64
}

// LookupResult is the outcome of a nutrition lookup. A nil Record means no
// product matched Query, which is a normal result and not an error.
type LookupResult struct {
	Query  string
	Record *NutritionRecord
}

// Found reports whether a product matched.
func (r LookupResult) Found() bool {
	return r.Record != nil
}

// Text renders the result as the fixed-shape text handed back to the model.
func (r LookupResult) Text() string {
	if r.Record == nil {
		return "No results found for \"" + r.Query + "\". Try a different name."
	}
	n := r.Record
	lines := []string{
		"Food: " + orDefault(n.Name, r.Query),
		"Brand: " + orDefault(n.Brand, "Unknown"),
		"Serving size: " + orDefault(n.ServingSize, "Not listed"),
		"",
		"Per 100g:",
		"- Calories: " + formatNutrient(n.Calories) + " kcal",
		"- Protein: " + formatNutrient(n.Protein) + " g",
		"- Carbohydrates: " + formatNutrient(n.Carbohydrates) + " g",
		"  - of which sugars: " + formatNutrient(n.Sugars) + " g",
		"- Fat: " + formatNutrient(n.Fat) + " g",
		"  - of which saturated: " + formatNutrient(n.SaturatedFat) + " g",
		"- Fiber: " + formatNutrient(n.Fiber) + " g",
		"- Salt: " + formatNutrient(n.Salt) + " g",
	}
	return strings.Join(lines, "\n")
}

func formatNutrient(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
