// Package tool exposes the location lookup as a function-calling tool: a
// name, a description, a JSON schema for its arguments and an Execute
// method taking the arguments as JSON.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ccollicutt/wherewas/pkg/timeline"
)

// Name is the tool's identifier.
const Name = "get_location_at_time"

// ErrInvalidArguments is wrapped by every argument validation error.
var ErrInvalidArguments = errors.New("invalid arguments")

// Locator answers five-integer location queries. *timeline.Store
// implements it.
type Locator interface {
	LocationAt(year, month, day, hour, minute int) timeline.Location
}

// LocationTool looks up where the user was at a given UTC minute.
type LocationTool struct {
	locator Locator
}

// NewLocationTool returns a tool backed by locator.
func NewLocationTool(locator Locator) *LocationTool {
	return &LocationTool{locator: locator}
}

func (t *LocationTool) Name() string {
	return Name
}

func (t *LocationTool) Description() string {
	return "Retrieves the geographical location (latitude and longitude) at a specified UTC time from the location history timeline"
}

// argument names in call order, with their allowed ranges.
var arguments = []struct {
	name        string
	description string
	min, max    int
}{
	{"year", "Year (e.g., 2024)", 1, 9999},
	{"month", "Month (1-12)", 1, 12},
	{"day", "Day of month (1-31)", 1, 31},
	{"hour", "Hour (0-23)", 0, 23},
	{"minute", "Minute (0-59)", 0, 59},
}

// Schema returns the JSON schema of the tool arguments.
func (t *LocationTool) Schema() map[string]interface{} {
	properties := make(map[string]interface{}, len(arguments))
	required := make([]string, 0, len(arguments))
	for _, a := range arguments {
		properties[a.name] = map[string]interface{}{
			"type":        "integer",
			"description": a.description,
			"minimum":     a.min,
			"maximum":     a.max,
		}
		required = append(required, a.name)
	}

	return map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// Execute validates argsJSON, resolves the location and returns it as
// JSON. Metadata carries the resolved time and whether a location was
// found.
func (t *LocationTool) Execute(ctx context.Context, argsJSON []byte) (string, map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	vals, err := parseArguments(argsJSON)
	if err != nil {
		return "", nil, err
	}
	year, month, day, hour, minute := vals[0], vals[1], vals[2], vals[3], vals[4]

	at := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if at.Day() != day {
		return "", nil, fmt.Errorf("%w: %04d-%02d-%02d is not a calendar date", ErrInvalidArguments, year, month, day)
	}

	loc := t.locator.LocationAt(year, month, day, hour, minute)
	data, err := json.Marshal(loc)
	if err != nil {
		return "", nil, fmt.Errorf("encoding location: %w", err)
	}

	return string(data), map[string]interface{}{
		"time":  at.Format(time.RFC3339),
		"found": loc.Found(),
	}, nil
}

// parseArguments returns the argument values in call order. Integers may
// arrive as JSON numbers without a fractional part or as numeric strings.
func parseArguments(argsJSON []byte) ([]int, error) {
	if !gjson.ValidBytes(argsJSON) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidArguments)
	}
	obj := gjson.ParseBytes(argsJSON)
	if !obj.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidArguments)
	}

	known := make(map[string]bool, len(arguments))
	for _, a := range arguments {
		known[a.name] = true
	}
	var unknown []string
	obj.ForEach(func(key, _ gjson.Result) bool {
		if !known[key.String()] {
			unknown = append(unknown, key.String())
		}
		return true
	})
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: unexpected field(s) %s", ErrInvalidArguments, strings.Join(unknown, ", "))
	}

	vals := make([]int, len(arguments))
	for i, a := range arguments {
		v, err := integerValue(obj.Get(a.name))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidArguments, a.name, err)
		}
		if v < a.min || v > a.max {
			return nil, fmt.Errorf("%w: %s: %d out of range %d-%d", ErrInvalidArguments, a.name, v, a.min, a.max)
		}
		vals[i] = v
	}
	return vals, nil
}

func integerValue(r gjson.Result) (int, error) {
	switch r.Type {
	case gjson.Number:
		if r.Num != math.Trunc(r.Num) {
			return 0, fmt.Errorf("%s is not an integer", r.Raw)
		}
		return int(r.Num), nil
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(r.Str))
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", r.Str)
		}
		return n, nil
	case gjson.Null:
		if !r.Exists() {
			return 0, errors.New("missing")
		}
		return 0, errors.New("must not be null")
	default:
		return 0, fmt.Errorf("%s is not an integer", r.Raw)
	}
}
