package ddns_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	ddns "github.com/Travis-Britz/cfddns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIPService(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookup(t *testing.T) {
	srv := newIPService(t, http.StatusOK, `{"ip":"198.51.100.23"}`)
	wr, err := ddns.WebResolver(srv.URL + "?format=json")
	require.NoError(t, err)

	ip, err := wr.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.23", ip)
}

func TestLookupRequest(t *testing.T) {
	var query, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query, accept = r.URL.RawQuery, r.Header.Get("Accept")
		io.WriteString(w, `{"ip":"198.51.100.23"}`)
	}))
	defer srv.Close()

	wr, err := ddns.WebResolver(srv.URL + "?format=json")
	require.NoError(t, err)
	_, err = wr.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "format=json", query)
	assert.Equal(t, "application/json", accept)
}

func TestLookupFailures(t *testing.T) {
	tests := map[string]struct {
		status int
		body   string
	}{
		"missing field":  {http.StatusOK, `{"address":"198.51.100.23"}`},
		"not json":       {http.StatusOK, "198.51.100.23\n"},
		"empty body":     {http.StatusOK, ""},
		"wrong type":     {http.StatusOK, `{"ip":42}`},
		"service errors": {http.StatusServiceUnavailable, `{"ip":"198.51.100.23"}`},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			srv := newIPService(t, tc.status, tc.body)
			wr, err := ddns.WebResolver(srv.URL)
			require.NoError(t, err)

			ip, err := wr.Resolve(context.Background())
			assert.Error(t, err)
			assert.Empty(t, ip)
		})
	}
}

func TestLookupUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	wr, err := ddns.WebResolver(srv.URL)
	require.NoError(t, err)

	_, err = wr.Resolve(context.Background())
	assert.Error(t, err)
}

func TestFromString(t *testing.T) {
	r, err := ddns.FromString("203.0.113.7")
	require.NoError(t, err)
	ip, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", ip)

	_, err = ddns.FromString("not an ip")
	assert.Error(t, err)
	_, err = ddns.FromString("2001:db8::1")
	assert.Error(t, err)
}
