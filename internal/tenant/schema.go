package tenant

import (
	"fmt"
	"regexp"
	"strings"
)

// Schema is a validated tenant namespace identifier. A Schema value can only
// be obtained through ParseSchema, so any code holding one knows the string
// already passed the allow-list check and is safe to use as a namespace key.
type Schema string

var schemaPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// ParseSchema validates a raw schema name against the allow-list pattern.
// This is the only place tenant namespace strings are inspected; everything
// downstream carries the typed value.
func ParseSchema(raw string) (Schema, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("tenant: schema name is required")
	}
	if !schemaPattern.MatchString(raw) {
		return "", fmt.Errorf("tenant: invalid schema name %q", raw)
	}
	return Schema(raw), nil
}

func (s Schema) String() string {
	return string(s)
}
