package api

import (
	"strconv"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// ParseTimestamp parses a timestamp string, supporting both Unix timestamps
// and human-readable dates ("2026-03-01", "yesterday").
// fieldName is used for error messages (e.g., "start", "end").
func ParseTimestamp(timestampStr, fieldName string) (time.Time, error) {
	if timestampStr == "" {
		return time.Time{}, NewValidationError("%s timestamp is required", fieldName)
	}

	// Bare integers are Unix seconds.
	if unixTimestamp, err := strconv.ParseInt(timestampStr, 10, 64); err == nil {
		if unixTimestamp < 0 {
			return time.Time{}, NewValidationError("%s timestamp must be non-negative", fieldName)
		}
		return time.Unix(unixTimestamp, 0).UTC(), nil
	}

	parser := dps.Parser{}
	cfg := &dps.Configuration{
		// Interpret partial dates like "March" as the current period.
		PreferredDateSource: dps.CurrentPeriod,
	}

	parsedDate, err := parser.Parse(cfg, timestampStr)
	if err != nil {
		return time.Time{}, NewValidationError("%s must be a valid Unix timestamp or human-readable date: %v", fieldName, err)
	}

	if parsedDate.IsZero() {
		return time.Time{}, NewValidationError("%s could not be parsed as a valid date: %s", fieldName, timestampStr)
	}

	return parsedDate.Time.UTC(), nil
}

// ParseOptionalTimestamp parses an optional timestamp string. An empty
// string returns defaultVal; a non-empty but invalid string is an error.
func ParseOptionalTimestamp(timestampStr, fieldName string, defaultVal time.Time) (time.Time, error) {
	if timestampStr == "" {
		return defaultVal, nil
	}
	return ParseTimestamp(timestampStr, fieldName)
}
