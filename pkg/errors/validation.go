package errors

// ValidationError reports a caller input that fails a precondition: an empty
// or unsafe identifier, a master key of the wrong length, a duplicate
// attachment logical name within one save call.
type ValidationError struct {
	*baseError
	field    string
	rule     string
	provided any
}

// NewValidationError creates a ValidationError with the given code and message.
func NewValidationError(cause error, code ErrorCode, message string) *ValidationError {
	return &ValidationError{baseError: newBaseError(cause, code, message)}
}

// WithField records which field failed validation.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.field = field
	return e
}

// WithRule records which validation rule was violated (e.g. "required",
// "forbidden_characters", "length", "unique").
func (e *ValidationError) WithRule(rule string) *ValidationError {
	e.rule = rule
	return e
}

// WithProvided records the offending value for debugging.
func (e *ValidationError) WithProvided(value any) *ValidationError {
	e.provided = value
	return e
}

// WithDetail attaches structured context while preserving the ValidationError type.
func (e *ValidationError) WithDetail(key string, value any) *ValidationError {
	e.baseError.WithDetail(key, value)
	return e
}

// Field returns the field name that failed validation.
func (e *ValidationError) Field() string {
	return e.field
}

// Rule returns the validation rule that was violated.
func (e *ValidationError) Rule() string {
	return e.rule
}

// NewRequiredFieldError creates a ValidationError for a missing required field.
func NewRequiredFieldError(field string) *ValidationError {
	return NewValidationError(nil, ErrorCodeInvalidInput, "required field is missing or empty").
		WithField(field).WithRule("required")
}

// NewForbiddenCharacterError creates a ValidationError for an identifier
// containing a character the safety policy rejects.
func NewForbiddenCharacterError(field string, provided string) *ValidationError {
	return NewValidationError(nil, ErrorCodeInvalidInput, "value contains a forbidden character").
		WithField(field).WithRule("forbidden_characters").WithProvided(provided)
}

// NewDuplicateAttachmentError creates a ValidationError for a save call that
// named the same attachment logical name more than once.
func NewDuplicateAttachmentError(logicalName string) *ValidationError {
	return NewValidationError(nil, ErrorCodeInvalidInput, "duplicate attachment logical name in one save call").
		WithField("logicalName").WithRule("unique").WithProvided(logicalName)
}
