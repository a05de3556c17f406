package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateOutputFormat validates a single artifact format name.
func ValidateOutputFormat(format string) error {
	switch format {
	case "svg", "png", "json":
		return nil
	case "":
		return New(ErrCodeInvalidFormat, "output format cannot be empty")
	default:
		return New(ErrCodeInvalidFormat, "unsupported output format: %q (want svg, png or json)", format)
	}
}

// hexColorRegex matches #rgb and #rrggbb colors.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateHexColor validates a color given in #rgb or #rrggbb form.
func ValidateHexColor(field, value string) error {
	if value == "" {
		return New(ErrCodeInvalidColor, "%s cannot be empty", field)
	}
	if !hexColorRegex.MatchString(strings.TrimSpace(value)) {
		return New(ErrCodeInvalidColor, "%s must be a #rgb or #rrggbb color, got %q", field, value)
	}
	return nil
}

// ValidateFilePath validates a local file path supplied by a user.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidateFilePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateSessionID validates a session or run identifier received over HTTP.
// Identifiers are UUIDs; anything else is rejected before a lookup happens.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}
	if !uuidRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "malformed id: %q", id)
	}
	return nil
}

var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
