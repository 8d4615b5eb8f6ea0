package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang/glog"

	"github.com/mqy/minisocial/api"
	"github.com/mqy/minisocial/form"
)

// ErrRedirectLogin is returned to protected views when the initial probe
// has resolved and nobody is logged in.
var ErrRedirectLogin = errors.New("auth: not logged in")

// State is a snapshot of the session.
type State struct {
	User    *api.Profile
	Loading bool
}

// Session holds the authentication state shared by all protected views.
// It is constructed explicitly and passed to its consumers.
type Session struct {
	sync.RWMutex

	backend Backend

	user    *api.Profile
	loading bool

	initOnce sync.Once
	initErr  error

	subs map[chan State]struct{}
}

func NewSession(backend Backend) *Session {
	return &Session{
		backend: backend,
		loading: true,
		subs:    make(map[chan State]struct{}),
	}
}

// Init runs the initial probe once. Loading becomes false when it resolves,
// whatever the outcome, and never becomes true again.
func (s *Session) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		_, err := s.Probe(ctx)
		if err != nil {
			glog.Errorf("session: initial probe: %v", err)
		}
		s.initErr = err

		s.Lock()
		s.loading = false
		s.Unlock()
		s.publish()
	})
	return s.initErr
}

// Probe asks the backend who is logged in. An auth-class rejection is the
// normal "not logged in" outcome and returns (nil, nil). Other failures
// clear the user and are returned.
func (s *Session) Probe(ctx context.Context) (*api.Profile, error) {
	p, err := s.backend.Profile(ctx)
	if err != nil {
		s.setUser(nil)
		if api.IsAuthError(err) {
			glog.V(5).Infof("session: probe: not logged in (status %d)", api.StatusCode(err))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	s.setUser(p)
	return p, nil
}

// Login resolves the user after the credential exchange has set the
// session cookie.
func (s *Session) Login(ctx context.Context) (*api.Profile, error) {
	return s.Probe(ctx)
}

// SignIn validates the username, exchanges credentials and then logs in.
func (s *Session) SignIn(ctx context.Context, username, password string) (*api.Profile, error) {
	if err := form.Username(username); err != nil {
		return nil, err
	}
	if err := s.backend.Token(ctx, strings.TrimSpace(username), password); err != nil {
		return nil, err
	}
	if exp, err := TokenExpiry(s.backend.Cookie(api.AccessCookie)); err == nil {
		glog.V(5).Infof("session: access token expires at %s", exp)
	}
	p, err := s.Login(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrRedirectLogin
	}
	return p, nil
}

// Logout invalidates the server side session and clears the local user
// whatever the network outcome. Auth-class failures are not reported.
func (s *Session) Logout(ctx context.Context) error {
	defer s.setUser(nil)

	err := s.backend.Logout(ctx, s.backend.Cookie(api.CSRFCookie))
	if err != nil {
		if api.IsAuthError(err) {
			return nil
		}
		glog.Errorf("session: logout: %v", err)
		return err
	}
	return nil
}

// Clear drops the local user without talking to the backend, e.g. after
// the account was deleted.
func (s *Session) Clear() {
	s.setUser(nil)
}

func (s *Session) User() *api.Profile {
	s.RLock()
	defer s.RUnlock()
	return s.user
}

func (s *Session) Loading() bool {
	s.RLock()
	defer s.RUnlock()
	return s.loading
}

// State returns the current user and loading flag together.
func (s *Session) State() State {
	s.RLock()
	defer s.RUnlock()
	return State{User: s.user, Loading: s.loading}
}

// RequireUser is the guard of protected views: it returns the user, or
// ErrRedirectLogin once loading is over and nobody is logged in. While
// loading, it returns (nil, nil) and the view should wait.
func (s *Session) RequireUser() (*api.Profile, error) {
	st := s.State()
	if st.Loading {
		return nil, nil
	}
	if st.User == nil {
		return nil, ErrRedirectLogin
	}
	return st.User, nil
}

// Subscribe returns a channel receiving the latest state after every
// change. Slow readers only see the most recent state. Call the returned
// func to unsubscribe.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	s.Lock()
	s.subs[ch] = struct{}{}
	s.Unlock()

	return ch, func() {
		s.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.Unlock()
	}
}

func (s *Session) setUser(p *api.Profile) {
	s.Lock()
	s.user = p
	s.Unlock()
	s.publish()
}

func (s *Session) publish() {
	s.Lock()
	defer s.Unlock()
	st := State{User: s.user, Loading: s.loading}
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}
