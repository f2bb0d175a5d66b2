package origin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveIPFromRemoteAddr(t *testing.T) {
	res := New(Config{Mode: ModeIP})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.5:54321"

	origin, err := res.Resolve(r)
	require.NoError(t, err)
	require.Equal(t, "203.0.113.5", origin)
}

func TestResolveIPBehindProxyUsesForwardedFor(t *testing.T) {
	res := New(Config{Mode: ModeIP, BehindProxy: true})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")

	origin, err := res.Resolve(r)
	require.NoError(t, err)
	require.Equal(t, "198.51.100.9", origin)
}

func TestResolveIPBehindProxyMissingHeader(t *testing.T) {
	res := New(Config{Mode: ModeIP, BehindProxy: true})
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := res.Resolve(r)
	require.ErrorIs(t, err, ErrUnresolved)
}

type fakeIdentity struct {
	username string
	ok       bool
}

func (f fakeIdentity) Username(r *http.Request) (string, bool) {
	return f.username, f.ok
}

func TestResolveUsername(t *testing.T) {
	res := New(Config{Mode: ModeUsername, Identity: fakeIdentity{username: "alice", ok: true}})
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	origin, err := res.Resolve(r)
	require.NoError(t, err)
	require.Equal(t, "alice", origin)
}

func TestResolveUsernameAbsent(t *testing.T) {
	res := New(Config{Mode: ModeUsername, Identity: fakeIdentity{ok: false}})
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := res.Resolve(r)
	require.ErrorIs(t, err, ErrUnresolved)
}
