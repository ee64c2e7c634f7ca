package engine

import (
	"fmt"
	"strconv"
)

// StringValue reads the first present key from a connection config map.
// Non-string scalars are stringified so numeric ports or booleans stored
// as raw JSON still resolve.
func StringValue(config map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := config[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val
			}
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		case int:
			return strconv.Itoa(val)
		case bool:
			return strconv.FormatBool(val)
		default:
			return fmt.Sprintf("%v", val)
		}
	}
	return ""
}

// IntValue reads the first present key as an int, tolerating the float64
// that JSON decoding produces and numeric strings. Returns fallback when
// no key yields a usable value.
func IntValue(config map[string]any, fallback int, keys ...string) int {
	for _, key := range keys {
		v, ok := config[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case int:
			return val
		case int64:
			return int(val)
		case float64:
			return int(val)
		case string:
			if n, err := strconv.Atoi(val); err == nil {
				return n
			}
		}
	}
	return fallback
}

// BoolValue reads the first present key as a bool.
func BoolValue(config map[string]any, fallback bool, keys ...string) bool {
	for _, key := range keys {
		v, ok := config[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case bool:
			return val
		case string:
			if b, err := strconv.ParseBool(val); err == nil {
				return b
			}
		}
	}
	return fallback
}
