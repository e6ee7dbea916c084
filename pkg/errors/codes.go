package errors

// ErrorCode categorizes a failure so callers can branch on it programmatically
// instead of matching error message strings.
type ErrorCode string

const (
	// ErrorCodeIO covers filesystem failures: missing file, permission denied,
	// rename failure, disk full.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput covers caller mistakes: empty identifier, an
	// identifier with forbidden characters, a master key of the wrong length,
	// a duplicate attachment logical name within one save call.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeAuthentication covers AEAD tag verification failure: wrong
	// key, wrong context, corrupted or truncated ciphertext.
	ErrorCodeAuthentication ErrorCode = "AUTHENTICATION_FAILED"

	// ErrorCodeSerialization covers a value that cannot be serialized to
	// bytes, or bytes that cannot be deserialized to the target type.
	ErrorCodeSerialization ErrorCode = "SERIALIZATION_ERROR"

	// ErrorCodeCancelled marks an operation that was aborted by its caller's
	// context before completion. Distinct from every other code so callers
	// can tell "you asked me to stop" from "something went wrong".
	ErrorCodeCancelled ErrorCode = "CANCELLED"

	// ErrorCodeInternal covers bugs and invariant violations that don't fit
	// any of the above.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)
