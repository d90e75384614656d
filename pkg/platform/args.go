package platform

import (
	"fmt"
	"math"
)

// ArgsMap returns decoded method arguments as a map. Nil arguments give a
// nil map and true; any other non-map value gives false.
func ArgsMap(args any) (map[string]any, bool) {
	switch m := args.(type) {
	case nil:
		return nil, true
	case map[string]any:
		return m, true
	case map[any]any:
		converted := make(map[string]any, len(m))
		for key, val := range m {
			if s, ok := key.(string); ok {
				converted[s] = val
			}
		}
		return converted, true
	}
	return nil, false
}

// Int64Arg reads a whole number from args[key]. JSON numbers arrive as
// float64, so whole floats are accepted and fractional ones rejected.
func Int64Arg(args map[string]any, key string) (int64, error) {
	raw, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidArguments, key)
	}
	n, ok := toInt64(raw)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a whole number, got %v", ErrInvalidArguments, key, raw)
	}
	return n, nil
}

// Float64Arg reads a number from args[key]. The bool result reports
// whether the key was present.
func Float64Arg(args map[string]any, key string) (float64, bool, error) {
	raw, ok := args[key]
	if !ok {
		return 0, false, nil
	}
	f, ok := toFloat64(raw)
	if !ok {
		return 0, true, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidArguments, key, raw)
	}
	return f, true, nil
}

// StringArg reads a string from args[key].
func StringArg(args map[string]any, key string) (string, bool) {
	s, ok := args[key].(string)
	return s, ok
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
