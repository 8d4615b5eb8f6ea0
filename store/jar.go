package store

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/publicsuffix"
)

// Jar is an http.CookieJar whose contents are mirrored to an ICookieStore,
// so that a session outlives the process. With a nil store it behaves like
// a plain in-memory jar.
type Jar struct {
	sync.Mutex
	jar   *cookiejar.Jar
	store ICookieStore
	// origin -> cookies as last set, used to rewrite the persisted entry.
	raw map[string][]*Cookie
	now func() time.Time
}

// NewJar creates a jar and loads any cookies persisted in store.
func NewJar(store ICookieStore) (*Jar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	j := &Jar{
		jar:   inner,
		store: store,
		raw:   make(map[string][]*Cookie),
		now:   time.Now,
	}
	if store == nil {
		return j, nil
	}

	saved, err := store.Load()
	if err != nil {
		return nil, err
	}
	now := j.now()
	for origin, cookies := range saved {
		u, err := url.Parse(origin)
		if err != nil {
			glog.Errorf("store: skip bad origin `%s`: %v", origin, err)
			continue
		}
		live := MergeCookies(nil, cookies, now)
		if len(live) == 0 {
			continue
		}
		j.raw[origin] = live
		httpCookies := make([]*http.Cookie, 0, len(live))
		for _, c := range live {
			httpCookies = append(httpCookies, c.ToHTTP())
		}
		j.jar.SetCookies(u, httpCookies)
	}
	glog.V(5).Infof("store: loaded cookies for %d origins", len(j.raw))
	return j, nil
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
	if j.store == nil || len(cookies) == 0 {
		return
	}

	now := j.now()
	incoming := make([]*Cookie, 0, len(cookies))
	for _, c := range cookies {
		incoming = append(incoming, FromHTTP(c, now))
	}

	j.Lock()
	defer j.Unlock()
	origin := Origin(u)
	merged := MergeCookies(j.raw[origin], incoming, now)
	j.raw[origin] = merged
	if err := j.store.Save(origin, merged); err != nil {
		glog.Errorf("store: save cookies for `%s`: %v", origin, err)
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Close closes the backing store, if any.
func (j *Jar) Close() error {
	if j.store == nil {
		return nil
	}
	return j.store.Close()
}
