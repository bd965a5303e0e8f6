package web

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientKey(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name    string
		remote  string
		forward string
		trusted []netip.Prefix
		want    string
	}{
		{name: "no proxies configured", remote: "203.0.113.7:5000", forward: "1.2.3.4", want: "203.0.113.7"},
		{name: "untrusted peer ignores header", remote: "203.0.113.7:5000", forward: "1.2.3.4", trusted: trusted, want: "203.0.113.7"},
		{name: "trusted peer uses header", remote: "10.0.0.2:5000", forward: "198.51.100.9", trusted: trusted, want: "198.51.100.9"},
		{name: "rightmost untrusted hop wins", remote: "10.0.0.2:5000", forward: "1.1.1.1, 198.51.100.9, 10.0.0.5", trusted: trusted, want: "198.51.100.9"},
		{name: "trusted peer without header", remote: "10.0.0.2:5000", trusted: trusted, want: "10.0.0.2"},
		{name: "garbage header", remote: "10.0.0.2:5000", forward: "not-an-ip", trusted: trusted, want: "10.0.0.2"},
		{name: "unparsable remote", remote: "pipe", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/check", nil)
			r.RemoteAddr = tt.remote
			if tt.forward != "" {
				r.Header.Set("X-Forwarded-For", tt.forward)
			}
			l := newRateLimiter(1, 1, tt.trusted)
			assert.Equal(t, tt.want, l.clientKey(r))
		})
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	l := newRateLimiter(0.001, 1, nil)
	a := httptest.NewRequest(http.MethodPost, "/check", nil)
	a.RemoteAddr = "203.0.113.7:1"
	b := httptest.NewRequest(http.MethodPost, "/check", nil)
	b.RemoteAddr = "203.0.113.8:1"

	assert.True(t, l.Allow(a))
	assert.False(t, l.Allow(a))
	assert.True(t, l.Allow(b))
	assert.True(t, newRateLimiter(0, 1, nil).Allow(a), "zero rate disables limiting")
}
