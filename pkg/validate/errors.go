package validate

import (
	"fmt"
	"strings"
)

// FieldErrors is the structured failure a validator returns: one entry
// per failing field.
type FieldErrors []Reason

// Error implements the error interface.
func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e))
	for i, r := range e {
		if r.Field == "" {
			parts[i] = r.Message
			continue
		}
		parts[i] = fmt.Sprintf("%s: %s", r.Field, r.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasField reports whether any reason names the given field.
func (e FieldErrors) HasField(field string) bool {
	for _, r := range e {
		if r.Field == field {
			return true
		}
	}
	return false
}
