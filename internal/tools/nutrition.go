package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/kgouthamk/my-first-agent/internal/domain"
)

const NutritionToolName = "get_nutrition"

// Lookuper is the nutrition lookup adapter consumed by the nutrition tool.
type Lookuper interface {
	Lookup(ctx context.Context, food string) (domain.LookupResult, error)
}

type nutritionArgs struct {
	Food string `mapstructure:"food"`
}

// NutritionDeclaration describes the get_nutrition tool.
func NutritionDeclaration() domain.ToolDeclaration {
	return domain.ToolDeclaration{
		Name:        NutritionToolName,
		Description: "Search the Open Food Facts database for a food and return its nutrition facts per 100g.",
		Parameters: []domain.Parameter{{
			Name:        "food",
			Description: `The food item to look up, e.g. "banana" or "cheddar cheese"`,
		}},
		Required: []string{"food"},
	}
}

// NutritionHandler performs one upstream lookup per call. Results are never
// cached, so repeating a food in one turn repeats the lookup.
func NutritionHandler(l Lookuper) Handler {
	return func(ctx context.Context, call domain.ToolCall) (string, error) {
		args, err := decodeArgs[nutritionArgs](call.Args)
		if err != nil {
			return "", err
		}
		food := strings.TrimSpace(args.Food)
		if food == "" {
			return "", fmt.Errorf("%w: food is required", ErrInvalidArguments)
		}
		res, err := l.Lookup(ctx, food)
		if err != nil {
			return "", err
		}
		return res.Text(), nil
	}
}

// RegisterNutrition registers get_nutrition backed by l.
func RegisterNutrition(r *Registry, l Lookuper) error {
	if l == nil {
		return fmt.Errorf("tools: nutrition lookup must not be nil")
	}
	return r.Register(NutritionDeclaration(), NutritionHandler(l))
}

func decodeArgs[T any](in map[string]any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(in); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return out, nil
}
