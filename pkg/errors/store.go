package errors

// StoreError reports a failure from the Record Store or Index Provider:
// filesystem I/O, or an internal invariant violation. It carries the
// identifier and path involved so logs and callers can pinpoint the record.
type StoreError struct {
	*baseError
	id   string
	path string
}

// NewStoreError creates a StoreError with the given code and message.
func NewStoreError(cause error, code ErrorCode, message string) *StoreError {
	return &StoreError{baseError: newBaseError(cause, code, message)}
}

// WithID records the record identifier involved in the failure.
func (e *StoreError) WithID(id string) *StoreError {
	e.id = id
	return e
}

// WithPath records the filesystem path involved in the failure.
func (e *StoreError) WithPath(path string) *StoreError {
	e.path = path
	return e
}

// WithDetail attaches structured context while preserving the StoreError type.
func (e *StoreError) WithDetail(key string, value any) *StoreError {
	e.baseError.WithDetail(key, value)
	return e
}

// ID returns the record identifier involved in the failure.
func (e *StoreError) ID() string {
	return e.id
}

// Path returns the filesystem path involved in the failure.
func (e *StoreError) Path() string {
	return e.path
}
