package domain

import "errors"

// Categorias de error. Cada error concreto envuelve exactamente una.
var (
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication error")
	ErrAuthorization  = errors.New("authorization error")
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limited")
)

var (
	ErrInvalidEmail      = kind(ErrValidation, "invalid email")
	ErrWeakPassword      = kind(ErrValidation, "password must be 8-128 characters and include upper, lower, digit and one of @$!%*?&")
	ErrInvalidRole       = kind(ErrValidation, "invalid user role")
	ErrEmailTaken        = kind(ErrValidation, "email already registered")
	ErrInvalidResetToken = kind(ErrValidation, "invalid or expired reset token")
	ErrInvalidOTP        = kind(ErrValidation, "invalid or expired otp code")
	ErrCannotBlockAdmin  = kind(ErrValidation, "cannot block administrator accounts")

	ErrInvalidCredentials    = kind(ErrAuthentication, "invalid credentials")
	ErrAdminLoginRequired    = kind(ErrAuthentication, "please use admin login endpoint")
	ErrInvalidRefreshToken   = kind(ErrAuthentication, "invalid refresh token")
	ErrInvalidAccessToken    = kind(ErrAuthentication, "invalid or expired token")
	ErrInvalidIdentityToken  = kind(ErrAuthentication, "invalid google token")
	ErrMissingAuthentication = kind(ErrAuthentication, "authentication required")

	ErrUserBlocked = kind(ErrAuthorization, "user is blocked")
	ErrNotAdmin    = kind(ErrAuthorization, "not authorized as admin")

	ErrUserNotFound  = kind(ErrNotFound, "user not found")
	ErrEmailNotFound = kind(ErrNotFound, "email not found")

	ErrOTPCooldown        = kind(ErrRateLimited, "please wait before requesting another otp")
	ErrOTPTooManyRequests = kind(ErrRateLimited, "too many otp requests")
)

// Error es un error de dominio con mensaje apto para el cliente.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func kind(base error, msg string) error {
	return &Error{Kind: base, Msg: msg}
}
