package auth

import (
	"context"

	"github.com/mqy/minisocial/api"
)

// Backend is the part of the REST API the session store depends on.
type Backend interface {
	// Profile fetches the current user; it is the authentication probe.
	Profile(ctx context.Context) (*api.Profile, error)

	// Token exchanges credentials for session cookies.
	Token(ctx context.Context, username, password string) error

	// Logout invalidates the server side session.
	Logout(ctx context.Context, csrfToken string) error

	// Cookie returns the named cookie value for the backend, or "".
	Cookie(name string) string
}

// AccountBackend is the part of the REST API used by the OTP-gated account flows.
type AccountBackend interface {
	SendRegistrationOTP(ctx context.Context, email string) error
	VerifyRegistrationOTP(ctx context.Context, email, otp string) error
	Register(ctx context.Context, r *api.Registration) error

	RequestPasswordOTP(ctx context.Context, email string) error
	VerifyPasswordOTP(ctx context.Context, email, otp string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error

	RequestAccountDeletion(ctx context.Context) error
	ConfirmAccountDeletion(ctx context.Context, otp string) error
}

var (
	_ Backend        = (*api.Client)(nil)
	_ AccountBackend = (*api.Client)(nil)
)
