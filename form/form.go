// Package form holds the validation run on user input before any request
// is sent. Errors carry the field they belong to so callers can show them
// next to the offending control.
package form

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	OTPLength         = 6
	MaxMessageLength  = 5000

	MaxAttachmentBytes = 10 << 20
	MaxUploadBytes     = 5 << 20
)

var (
	usernameRe    = regexp.MustCompile(`^[A-Za-z0-9_.-]*$`)
	digitRe       = regexp.MustCompile(`[0-9]`)
	specialCharRe = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
	emailRe       = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

var (
	AttachmentTypes     = []string{"image/jpeg", "image/png", "image/gif", "video/mp4"}
	ProfilePictureTypes = []string{"image/jpeg", "image/png", "image/gif"}
	DocumentTypes       = []string{"application/pdf", "image/jpeg", "image/png"}
)

// Errors maps field names to messages.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return strings.Join(parts, "; ")
}

// Err returns e as an error, or nil when there is nothing to report.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Field returns a single-field error.
func Field(name, msg string) error {
	return Errors{name: msg}
}

// Password returns the first strength rule pw violates, or "".
func Password(pw string) string {
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		return fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength)
	}
	if !digitRe.MatchString(pw) {
		return "Password must contain at least one number"
	}
	if !specialCharRe.MatchString(pw) {
		return "Password must contain at least one special character"
	}
	return ""
}

// NewPassword checks strength and confirmation.
func NewPassword(pw, confirm string) error {
	if msg := Password(pw); msg != "" {
		return Field("password", msg)
	}
	if pw != confirm {
		return Field("confirm_password", "Passwords do not match")
	}
	return nil
}

// Username checks the login username charset.
func Username(name string) error {
	if !usernameRe.MatchString(name) {
		return Field("username", "Invalid username format")
	}
	return nil
}

// OTP checks a one-time code.
func OTP(code string) error {
	if strings.TrimSpace(code) == "" {
		return Field("otp", "Please enter the OTP")
	}
	if len(code) < OTPLength {
		return Field("otp", fmt.Sprintf("OTP must be %d digits", OTPLength))
	}
	return nil
}

// Registration validates the sign-up form.
func Registration(username, email, password, confirm string) error {
	errs := Errors{}
	if strings.TrimSpace(username) == "" {
		errs["username"] = "Username is required"
	} else if err := Username(username); err != nil {
		errs["username"] = "Invalid username format"
	}
	if strings.TrimSpace(email) == "" {
		errs["email"] = "Email is required"
	} else if !emailRe.MatchString(strings.TrimSpace(email)) {
		errs["email"] = "Invalid email address"
	}
	if password == "" {
		errs["password"] = "Password is required"
	} else if msg := Password(password); msg != "" {
		errs["password"] = msg
	}
	if len(errs) == 0 && confirm != "" && password != confirm {
		errs["confirm_password"] = "Passwords do not match!"
	}
	return errs.Err()
}

// Upload describes a file picked by the user.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
}

// Attachment validates a message attachment.
func Attachment(u Upload) error {
	if !contains(AttachmentTypes, u.ContentType) {
		return Field("attachment", "Only images and videos are allowed")
	}
	if u.Size > MaxAttachmentBytes {
		return Field("attachment", "File size must be under 10MB")
	}
	return nil
}

// ProfilePicture validates a profile picture upload.
func ProfilePicture(u Upload) error {
	if u.Size > MaxUploadBytes {
		return Field("profile_picture", "Profile picture must be less than 5MB")
	}
	if !contains(ProfilePictureTypes, u.ContentType) {
		return Field("profile_picture", "Only JPEG, PNG, and GIF allowed for profile picture")
	}
	return nil
}

// VerificationDocument validates a verification document upload.
func VerificationDocument(u Upload) error {
	if !contains(DocumentTypes, u.ContentType) {
		return Field("verification_document", "Only PDF, JPG, and PNG files allowed for verification document")
	}
	if u.Size > MaxUploadBytes {
		return Field("verification_document", "Verification document must be less than 5MB")
	}
	return nil
}

// Report validates a report form. evidence may be nil.
func Report(category int64, description string, evidence *Upload) error {
	if category == 0 {
		return Field("category", "Please select a reason for reporting")
	}
	if strings.TrimSpace(description) == "" {
		return Field("description", "Please provide details about the report")
	}
	if evidence != nil && evidence.Size > MaxUploadBytes {
		return Field("evidence", "File size must be less than 5MB")
	}
	return nil
}

// Message validates a direct message before it is sent.
func Message(receiver int64, content string, hasAttachment bool) error {
	if receiver == 0 || (strings.TrimSpace(content) == "" && !hasAttachment) {
		return Field("message", "Select a receiver and add content")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return Field("message", fmt.Sprintf("Message is too long (maximum %d characters)", MaxMessageLength))
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
