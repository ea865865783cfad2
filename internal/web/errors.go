package web

// API error codes
const (
	CodeValidationError       = "VALIDATION_ERROR"
	CodeMissingIdempotencyKey = "MISSING_IDEMPOTENCY_KEY"
	CodeIdempotencyKeyReused  = "IDEMPOTENCY_KEY_REUSED"
	CodeRequestInProgress     = "REQUEST_IN_PROGRESS"
	CodeInternalError         = "INTERNAL_ERROR"
)

// FieldError describes a single invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON error payload for all non-2xx responses
type ErrorResponse struct {
	Code        string       `json:"code"`
	Message     string       `json:"message"`
	FieldErrors []FieldError `json:"fieldErrors"`
}

func simpleError(code, message string) ErrorResponse {
	return ErrorResponse{
		Code:        code,
		Message:     message,
		FieldErrors: []FieldError{},
	}
}
