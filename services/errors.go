package services

import "errors"

// Callers wrap these with fmt.Errorf("%w: ...") and classify with errors.Is.
var (
	ErrValidation           = errors.New("validation error")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrCodeExpiredOrMissing = errors.New("OTP expired or not found")
	ErrCodeMismatch         = errors.New("invalid OTP")
	ErrAdminProtected       = errors.New("admin cannot be removed")
	ErrUserNotFound         = errors.New("user not found")
)
