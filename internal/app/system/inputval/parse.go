package inputval

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/projecthub/internal/app/system/apierr"
)

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// Date parses an ISO date or timestamp. Values without a zone are UTC.
func Date(raw, path, location string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apierr.Validation(path, location, fmt.Sprintf("%s should be a valid date.", path))
}

// OptionalDate is Date for values that may be absent.
func OptionalDate(raw, path, location string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := Date(raw, path, location)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Flag reads a boolean query flag. Only "true" and "1" are true.
func Flag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		return true
	}
	return false
}
