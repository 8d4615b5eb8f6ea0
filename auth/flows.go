package auth

import (
	"context"
	"strings"

	"github.com/golang/glog"

	"github.com/mqy/minisocial/api"
	"github.com/mqy/minisocial/form"
)

// Flows drives the OTP-gated account operations: registration, password
// change, forgot password and account deletion. Form errors are reported
// before any request is made.
type Flows struct {
	backend AccountBackend
	session *Session
}

func NewFlows(backend AccountBackend, session *Session) *Flows {
	return &Flows{backend: backend, session: session}
}

// StartRegistration validates the sign-up form and emails a code.
func (f *Flows) StartRegistration(ctx context.Context, r *api.Registration, confirmPassword string) error {
	if err := form.Registration(r.Username, r.Email, r.Password, confirmPassword); err != nil {
		return err
	}
	return f.backend.SendRegistrationOTP(ctx, strings.TrimSpace(r.Email))
}

// CompleteRegistration verifies the code and creates the account.
func (f *Flows) CompleteRegistration(ctx context.Context, r *api.Registration, otp string) error {
	if err := form.OTP(otp); err != nil {
		return err
	}
	email := strings.TrimSpace(r.Email)
	if err := f.backend.VerifyRegistrationOTP(ctx, email, otp); err != nil {
		return err
	}
	return f.backend.Register(ctx, &api.Registration{
		Username: strings.TrimSpace(r.Username),
		Email:    email,
		Password: r.Password,
	})
}

// RequestPasswordChange emails a code to email. The logged-in change and
// the forgot-password flow share the same endpoints.
func (f *Flows) RequestPasswordChange(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return form.Field("email", "Email is required")
	}
	return f.backend.RequestPasswordOTP(ctx, strings.TrimSpace(email))
}

// VerifyPasswordChange checks the emailed code.
func (f *Flows) VerifyPasswordChange(ctx context.Context, email, otp string) error {
	if err := form.OTP(otp); err != nil {
		return err
	}
	return f.backend.VerifyPasswordOTP(ctx, strings.TrimSpace(email), otp)
}

// ResetPassword sets the new password after the code was verified.
func (f *Flows) ResetPassword(ctx context.Context, email, otp, newPassword, confirm string) error {
	if err := form.NewPassword(newPassword, confirm); err != nil {
		return err
	}
	return f.backend.ResetPassword(ctx, strings.TrimSpace(email), otp, newPassword)
}

// RequestDeletion emails an account deletion code.
func (f *Flows) RequestDeletion(ctx context.Context) error {
	return f.backend.RequestAccountDeletion(ctx)
}

// ConfirmDeletion deletes the account and clears the session.
func (f *Flows) ConfirmDeletion(ctx context.Context, otp string) error {
	if strings.TrimSpace(otp) == "" {
		return form.Field("otp", "Please enter the OTP")
	}
	if err := f.backend.ConfirmAccountDeletion(ctx, otp); err != nil {
		return err
	}
	glog.Infof("account deleted")
	f.session.Clear()
	return nil
}
