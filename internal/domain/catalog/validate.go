package catalog

import (
	"fmt"
	"strconv"
)

// ValidateResults checks a results payload field-by-field against the schema
// and returns a normalized copy: numeric fields coerced to float64, enum
// values restricted to the declared options (or empty), string fields kept as
// strings. Nil values are dropped. Any violation returns an error before the
// caller attempts a mutation.
func ValidateResults(fs FieldSchema, results map[string]interface{}) (map[string]interface{}, error) {
	normalized := make(map[string]interface{}, len(results))
	for key, value := range results {
		if value == nil {
			continue
		}
		field, ok := fs.FieldByKey(key)
		if !ok {
			return nil, fmt.Errorf("unknown result field %q", key)
		}

		switch field.Type {
		case FieldNumeric:
			n, err := coerceNumeric(value)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			normalized[key] = n
		case FieldEnum:
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("field %q must be one of its declared options", key)
			}
			if s != "" && !contains(field.Options, s) {
				return nil, fmt.Errorf("field %q: %q is not an allowed option", key, s)
			}
			normalized[key] = s
		case FieldString:
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("field %q must be a string", key)
			}
			normalized[key] = s
		default:
			return nil, fmt.Errorf("field %q has unsupported type %q", key, field.Type)
		}
	}
	return normalized, nil
}

func coerceNumeric(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("value is not numeric")
	}
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
