package store

import (
	"net/http"
	"time"
)

// Cookie is the persisted form of an http.Cookie. http.Cookie itself does
// not round trip Expires/MaxAge through JSON in a useful way.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

type ICookieStore interface {
	// Load returns all persisted cookies keyed by origin (scheme://host).
	Load() (map[string][]*Cookie, error)

	// Save replaces the cookies persisted for origin. An empty slice deletes the entry.
	Save(origin string, cookies []*Cookie) error

	// Close releases the underlying storage.
	Close() error
}

// FromHTTP converts a response cookie to its persisted form, resolving
// MaxAge relative to now.
func FromHTTP(c *http.Cookie, now time.Time) *Cookie {
	out := &Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
	}
	if c.MaxAge > 0 {
		out.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
	} else if c.MaxAge < 0 {
		out.Expires = time.Unix(1, 0)
	}
	return out
}

// ToHTTP converts a persisted cookie back for a cookiejar.
func (c *Cookie) ToHTTP() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
	}
}
