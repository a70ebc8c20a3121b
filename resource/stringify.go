package resource

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Stringify returns a copy of value with every scalar converted to its
// textual representation. Mappings keep their keys, sequences keep their
// order, and nil values stay nil. Comparing two Stringify results avoids
// false differences between numeric and string renderings of the same value,
// which is why it must be applied symmetrically to both sides of any
// structured comparison.
func Stringify(value Value) Value {
	switch typed := value.(type) {
	case nil:
		return nil
	case map[string]any:
		stringified := make(map[string]any, len(typed))
		for key, item := range typed {
			stringified[key] = Stringify(item)
		}
		return stringified
	case map[string]string:
		stringified := make(map[string]any, len(typed))
		for key, item := range typed {
			stringified[key] = item
		}
		return stringified
	case []any:
		stringified := make([]any, len(typed))
		for idx, item := range typed {
			stringified[idx] = Stringify(item)
		}
		return stringified
	case []string:
		stringified := make([]any, len(typed))
		for idx, item := range typed {
			stringified[idx] = item
		}
		return stringified
	}

	if text, ok := scalarString(value); ok {
		return text
	}
	return stringifyReflectValue(value)
}

// StringifyMap normalizes a mapping field, treating an absent mapping as
// empty.
func StringifyMap(value map[string]any) map[string]any {
	if len(value) == 0 {
		return map[string]any{}
	}

	stringified, ok := Stringify(value).(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return stringified
}

func stringifyReflectValue(value Value) Value {
	reflectValue := reflect.ValueOf(value)
	switch reflectValue.Kind() {
	case reflect.Map:
		if reflectValue.Type().Key().Kind() != reflect.String {
			return fmt.Sprintf("%v", value)
		}
		stringified := make(map[string]any, reflectValue.Len())
		for _, key := range reflectValue.MapKeys() {
			stringified[key.String()] = Stringify(reflectValue.MapIndex(key).Interface())
		}
		return stringified
	case reflect.Slice, reflect.Array:
		length := reflectValue.Len()
		stringified := make([]any, length)
		for idx := 0; idx < length; idx++ {
			stringified[idx] = Stringify(reflectValue.Index(idx).Interface())
		}
		return stringified
	default:
		return fmt.Sprintf("%v", value)
	}
}

func scalarString(value any) (string, bool) {
	switch typed := value.(type) {
	case string:
		return typed, true
	case bool:
		return strconv.FormatBool(typed), true
	case int:
		return strconv.Itoa(typed), true
	case int8:
		return strconv.FormatInt(int64(typed), 10), true
	case int16:
		return strconv.FormatInt(int64(typed), 10), true
	case int32:
		return strconv.FormatInt(int64(typed), 10), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case uint:
		return strconv.FormatUint(uint64(typed), 10), true
	case uint8:
		return strconv.FormatUint(uint64(typed), 10), true
	case uint16:
		return strconv.FormatUint(uint64(typed), 10), true
	case uint32:
		return strconv.FormatUint(uint64(typed), 10), true
	case uint64:
		return strconv.FormatUint(typed, 10), true
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case fmt.Stringer:
		return strings.TrimSpace(typed.String()), true
	default:
		return "", false
	}
}
