package schema

import (
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are accepted in order for TypeDate string values.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

// coerce converts a raw JSON value to the declared field type. It is
// lenient the way the original contract is: numeric strings become
// numbers, ISO date strings become timestamps. Values already of the
// target type pass through unchanged, which keeps Parse idempotent.
func coerce(t FieldType, raw any) (any, error) {
	switch t {
	case TypeInt:
		return coerceInt(raw)
	case TypeFloat:
		return coerceFloat(raw)
	case TypeString:
		return coerceString(raw)
	case TypeBool:
		return coerceBool(raw)
	case TypeDate:
		return coerceDate(raw)
	case TypeEmail:
		return coerceEmail(raw)
	default:
		return nil, fmt.Errorf("unknown field type %q", t)
	}
}

func coerceInt(raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("value %v is not a valid integer", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("value %q is not a valid integer", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("value of type %T is not a valid integer", raw)
	}
}

func coerceFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a valid number", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("value of type %T is not a valid number", raw)
	}
}

func coerceString(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return nil, fmt.Errorf("value of type %T is not a valid string", raw)
	}
}

func coerceBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("value %q is not a valid boolean", v)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("value of type %T is not a valid boolean", raw)
	}
}

func coerceDate(raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, nil
			}
		}
		return nil, fmt.Errorf("value %q is not a valid date", v)
	default:
		return nil, fmt.Errorf("value of type %T is not a valid date", raw)
	}
}

func coerceEmail(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("value of type %T is not a valid email address", raw)
	}
	s = strings.TrimSpace(s)

	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return nil, fmt.Errorf("value %q is not a valid email address", s)
	}
	// require a dotted domain, net/mail alone accepts user@host
	at := strings.LastIndex(s, "@")
	if at < 0 || !strings.Contains(s[at+1:], ".") {
		return nil, fmt.Errorf("value %q is not a valid email address", s)
	}
	return s, nil
}
