package schema

import (
	"fmt"
	"strings"
	"time"
)

// NotInFuture rejects dates after now. Guards against source systems
// with skewed clocks.
func NotInFuture() Rule {
	return func(value any) (any, error) {
		ts, ok := value.(time.Time)
		if !ok {
			return value, nil
		}
		if ts.After(time.Now()) {
			return nil, fmt.Errorf("date must not be in the future")
		}
		return ts, nil
	}
}

// TrimUpper normalizes string values to trimmed upper case.
// Idempotent, so re-validated clean records pass unchanged.
func TrimUpper() Rule {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return value, nil
		}
		return strings.ToUpper(strings.TrimSpace(s)), nil
	}
}

// OneOf rejects string values outside the allowed set.
func OneOf(allowed ...string) Rule {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return value, nil
		}
		for _, a := range allowed {
			if s == a {
				return s, nil
			}
		}
		return nil, fmt.Errorf("value %q is not one of %s", s, strings.Join(allowed, ", "))
	}
}
