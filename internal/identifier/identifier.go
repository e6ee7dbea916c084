// Package identifier enforces the safety policy for record identifiers and
// attachment logical names: reject unsafe input outright rather than escape
// it, so the on-disk filename always matches the caller-supplied name
// exactly and the "{id}-{logicalName}" attachment prefix match used by
// delete never has to reverse an escaping scheme.
package identifier

import (
	"strings"

	cabinetErrors "github.com/cabinetdb/cabinet/pkg/errors"
)

// Validate rejects an identifier or logical name that is empty, contains a
// forward slash, a backslash, a NUL byte, or starts with a dot.
func Validate(field, value string) error {
	if value == "" {
		return cabinetErrors.NewRequiredFieldError(field)
	}
	if strings.ContainsAny(value, "/\\\x00") {
		return cabinetErrors.NewForbiddenCharacterError(field, value)
	}
	if strings.HasPrefix(value, ".") {
		return cabinetErrors.NewForbiddenCharacterError(field, value)
	}
	return nil
}
