package store

import (
	"net/http"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJarPersistsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.db")
	u, _ := url.Parse("http://127.0.0.1:8000/api/token/")

	{
		s, err := OpenCookieStore(path)
		require.NoError(t, err)
		jar, err := NewJar(s)
		require.NoError(t, err)

		jar.SetCookies(u, []*http.Cookie{
			{Name: "access_token", Value: "tok", Path: "/", MaxAge: 3600},
			{Name: "csrftoken", Value: "csrf", Path: "/"},
		})
		require.NoError(t, jar.Close())
	}

	s, err := OpenCookieStore(path)
	require.NoError(t, err)
	jar, err := NewJar(s)
	require.NoError(t, err)
	defer jar.Close()

	got := map[string]string{}
	for _, c := range jar.Cookies(u) {
		got[c.Name] = c.Value
	}
	assert.Equal(t, map[string]string{"access_token": "tok", "csrftoken": "csrf"}, got)
}

func TestJarDeletedCookiesAreNotRestored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.db")
	u, _ := url.Parse("http://127.0.0.1:8000/")

	s, err := OpenCookieStore(path)
	require.NoError(t, err)
	jar, err := NewJar(s)
	require.NoError(t, err)

	jar.SetCookies(u, []*http.Cookie{{Name: "access_token", Value: "tok", Path: "/"}})
	jar.SetCookies(u, []*http.Cookie{{Name: "access_token", Path: "/", MaxAge: -1}})
	assert.Empty(t, jar.Cookies(u))
	require.NoError(t, jar.Close())

	s, err = OpenCookieStore(path)
	require.NoError(t, err)
	saved, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, saved)
	require.NoError(t, s.Close())
}

func TestJarWithoutStore(t *testing.T) {
	jar, err := NewJar(nil)
	require.NoError(t, err)
	u, _ := url.Parse("http://localhost/")
	jar.SetCookies(u, []*http.Cookie{{Name: "a", Value: "b"}})
	assert.Len(t, jar.Cookies(u), 1)
	assert.NoError(t, jar.Close())
}
