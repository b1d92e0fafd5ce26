package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		host   string
		rest   string
		scheme string
	}{
		{"simple", "http://blocked-site.com/page", "http://blocked-site.com/page", "blocked-site.com", "/page", "http"},
		{"case folded scheme and host only", "HTTPS://WWW.Example.COM/Path/File?Q=A", "https://www.example.com/Path/File?Q=A", "www.example.com", "/Path/File?Q=A", "https"},
		{"empty path", "http://example.com", "http://example.com/", "example.com", "/", "http"},
		{"port kept", "http://example.com:8080/x", "http://example.com:8080/x", "example.com", ":8080/x", "http"},
		{"fragment and userinfo dropped", "http://user:pw@example.com/a#frag", "http://example.com/a", "example.com", "/a", "http"},
		{"trailing dot host", "http://example.com./", "http://example.com/", "example.com", "/", "http"},
		{"ipv6", "http://[::1]:80/", "http://[::1]:80/", "::1", ":80/", "http"},
		{"idna host", "http://bücher.example/", "http://xn--bcher-kva.example/", "xn--bcher-kva.example", "/", "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String)
			assert.Equal(t, tt.host, got.Host)
			assert.Equal(t, tt.rest, got.Rest())
			assert.Equal(t, tt.scheme, got.Scheme)
		})
	}
}

func TestNormalizeURL_OriginAndPathQuery(t *testing.T) {
	tests := []struct {
		in, origin, pathQuery string
	}{
		{"HTTPS://WWW.Example.COM/Path?Q=A", "https://www.example.com", "/Path?Q=A"},
		{"http://example.com", "http://example.com", "/"},
		{"http://example.com:8080/x", "http://example.com:8080", "/x"},
		{"http://[::1]:80/", "http://[::1]:80", "/"},
	}
	for _, tt := range tests {
		got, err := NormalizeURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.origin, got.Origin(), tt.in)
		assert.Equal(t, tt.pathQuery, got.PathQuery(), tt.in)
		assert.Equal(t, got.String, got.Origin()+got.PathQuery())
	}
}

func TestNormalizeURL_Errors(t *testing.T) {
	bad := []string{
		"",
		"example.com/page",
		"mailto:someone@example.com",
		"http://",
		"http://%zz/",
		"/relative/path",
	}
	for _, in := range bad {
		_, err := NormalizeURL(in)
		require.Error(t, err, "input %q", in)
		assert.True(t, errors.Is(err, ErrURL), "input %q: %v", in, err)
		var ue *URLError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, in, ue.URL)
	}
}
