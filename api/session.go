package api

import (
	"context"
	"net/http"
	"net/url"
)

// Token exchanges credentials for session cookies.
func (c *Client) Token(ctx context.Context, username, password string) error {
	in := map[string]string{"username": username, "password": password}
	return c.sendJSON(ctx, http.MethodPost, "token/", in, nil)
}

// Profile fetches the current user's profile. It doubles as the session probe.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.getJSON(ctx, "profile/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the server side session.
func (c *Client) Logout(ctx context.Context, csrfToken string) error {
	h := http.Header{}
	h.Set(csrfHeader, csrfToken)
	return c.do(ctx, http.MethodPost, "logout/", nil, nil, "", h, nil)
}

// UpdateProfile updates the profile with optional picture and verification document.
func (c *Client) UpdateProfile(ctx context.Context, u *ProfileUpdate) (*Profile, error) {
	form := &multipartForm{}
	form.set("bio", u.Bio)
	form.set("full_name", u.FullName)
	form.set("username", u.Username)
	form.set("email", u.Email)
	form.file("profile_picture", u.ProfilePicture)
	form.file("verification_document", u.VerificationDocument)

	var out Profile
	if err := c.sendMultipart(ctx, http.MethodPut, "profile/update/", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users lists users visible to the current user, with friendship summaries.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.getJSON(ctx, "users/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserProfile fetches another user's public profile.
func (c *Client) UserProfile(ctx context.Context, username string) (*PublicProfile, error) {
	var out PublicProfile
	if err := c.getJSON(ctx, "users/"+url.PathEscape(username)+"/profile/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. The backend expects a url-encoded form.
func (c *Client) Register(ctx context.Context, r *Registration) error {
	form := url.Values{}
	form.Set("username", r.Username)
	form.Set("email", r.Email)
	form.Set("password", r.Password)
	return c.postForm(ctx, "register/", form, nil)
}

// SendRegistrationOTP emails a registration code.
func (c *Client) SendRegistrationOTP(ctx context.Context, email string) error {
	return c.sendJSON(ctx, http.MethodPost, "send-otp/", map[string]string{"email": email}, nil)
}

// VerifyRegistrationOTP checks a registration code.
func (c *Client) VerifyRegistrationOTP(ctx context.Context, email, otp string) error {
	return c.sendJSON(ctx, http.MethodPost, "verify-otp/", map[string]string{"email": email, "otp": otp}, nil)
}

// RequestPasswordOTP emails a password change code. Also used by forgot password.
func (c *Client) RequestPasswordOTP(ctx context.Context, email string) error {
	return c.sendJSON(ctx, http.MethodPost, "change-password/request-otp/", map[string]string{"email": email}, nil)
}

// VerifyPasswordOTP checks a password change code.
func (c *Client) VerifyPasswordOTP(ctx context.Context, email, otp string) error {
	return c.sendJSON(ctx, http.MethodPost, "change-password/verify-otp/", map[string]string{"email": email, "otp": otp}, nil)
}

// ResetPassword sets a new password with a verified code.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	in := map[string]string{"email": email, "otp": otp, "new_password": newPassword}
	return c.sendJSON(ctx, http.MethodPost, "change-password/reset/", in, nil)
}

// RequestAccountDeletion emails an account deletion code.
func (c *Client) RequestAccountDeletion(ctx context.Context) error {
	return c.sendJSON(ctx, http.MethodPost, "delete-account/request/", nil, nil)
}

// ConfirmAccountDeletion deletes the account.
func (c *Client) ConfirmAccountDeletion(ctx context.Context, otp string) error {
	return c.sendJSON(ctx, http.MethodPost, "delete-account/confirm/", map[string]string{"otp": otp}, nil)
}
