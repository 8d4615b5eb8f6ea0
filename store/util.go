package store

import (
	"net/url"
	"time"
)

// Origin returns the scheme://host key cookies for u are persisted under.
func Origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

// MergeCookies applies incoming cookies over existing ones. A cookie with
// the same name and path replaces the old one; expired cookies are dropped.
// Order of first appearance is kept.
func MergeCookies(existing, incoming []*Cookie, now time.Time) []*Cookie {
	type key struct{ name, path string }

	index := make(map[key]int, len(existing)+len(incoming))
	var out []*Cookie

	put := func(c *Cookie) {
		k := key{c.Name, c.Path}
		if i, ok := index[k]; ok {
			out[i] = c
			return
		}
		index[k] = len(out)
		out = append(out, c)
	}

	for _, c := range existing {
		put(c)
	}
	for _, c := range incoming {
		put(c)
	}

	live := out[:0]
	for _, c := range out {
		if !IsExpired(c, now) {
			live = append(live, c)
		}
	}
	return live
}

// IsExpired reports whether c has an expiry at or before now. Session
// cookies (zero Expires) never expire here.
func IsExpired(c *Cookie, now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}
