package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ToInt converts json-like values (numbers come back as float64 from
// decoded component data) to int, 0 if not convertible
func ToInt(v any) int {
	return int(ToInt64(v))
}

func ToInt64(v any) int64 {
	switch i := v.(type) {
	case int:
		return int64(i)
	case int8:
		return int64(i)
	case int16:
		return int64(i)
	case int32:
		return int64(i)
	case int64:
		return i
	case uint:
		return int64(i)
	case uint8:
		return int64(i)
	case uint16:
		return int64(i)
	case uint32:
		return int64(i)
	case uint64:
		return int64(i)
	case float32:
		return int64(i)
	case float64:
		return int64(i)
	case string:
		return Atoi64(i)
	}
	return 0
}

func ToUint64(v any) uint64 {
	switch i := v.(type) {
	case uint64:
		return i
	case float64:
		return uint64(i)
	case string:
		return ParseUint64(i)
	}
	return uint64(ToInt64(v))
}

func ToFloat(v any) float64 {
	switch i := v.(type) {
	case float64:
		return i
	case float32:
		return float64(i)
	case string:
		f64, err := strconv.ParseFloat(i, 64)
		if err != nil {
			return 0
		}
		return f64
	}
	return float64(ToInt64(v))
}

func ToBool(v any) bool {
	switch i := v.(type) {
	case bool:
		return i
	case string:
		return strings.ToLower(i) == "true" || i == "1"
	}
	return ToInt64(v) != 0
}

func ToString(v any) string {
	switch i := v.(type) {
	case nil:
		return ""
	case string:
		return i
	}
	return fmt.Sprint(v)
}
