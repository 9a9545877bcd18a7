package utils

import (
	"fmt"
	"strconv"
)

// ToFloat converts various types to float64 using explicit type switching.
// It handles standard numeric types, strings, and byte slices. Values
// that cannot be parsed convert to zero.
func ToFloat(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case uint:
		return float64(v)
	case uint64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	default:
		s := fmt.Sprintf("%v", v)
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
}

// UnquoteExtra strips the JSON string quoting Spoolman applies to values
// in the extra field map. Non-string JSON values are returned verbatim.
func UnquoteExtra(raw string) string {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		if s, err := strconv.Unquote(raw); err == nil {
			return s
		}
	}
	return raw
}
