package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrustedRealIP(t *testing.T) {
	trusted := []string{"10.0.0.0/8", "192.168.1.1", "bogus"}

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "untrusted peer keeps its address",
			remoteAddr: "203.0.113.9:5000",
			headers:    map[string]string{"X-Forwarded-For": "1.1.1.1"},
			want:       "203.0.113.9:5000",
		},
		{
			name:       "trusted proxy with X-Real-IP",
			remoteAddr: "10.1.2.3:80",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7", "X-Forwarded-For": "1.1.1.1"},
			want:       "198.51.100.7",
		},
		{
			name:       "rightmost untrusted hop wins",
			remoteAddr: "192.168.1.1:80",
			headers:    map[string]string{"X-Forwarded-For": "6.6.6.6, 198.51.100.7, 10.0.0.5"},
			want:       "198.51.100.7",
		},
		{
			name:       "only trusted hops",
			remoteAddr: "10.1.2.3:80",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.5"},
			want:       "10.1.2.3:80",
		},
		{
			name:       "garbage hop",
			remoteAddr: "10.1.2.3:80",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "10.1.2.3:80",
		},
		{
			name:       "no headers",
			remoteAddr: "10.1.2.3:80",
			want:       "10.1.2.3:80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProxies(t *testing.T) {
	p := parseProxies([]string{" 10.0.0.0/8 ", "", "::1", "nope"})

	assert.Len(t, p, 2)
	assert.True(t, p.contains(hostIP("10.9.9.9:1")))
	assert.True(t, p.contains(hostIP("[::1]:8080")))
	assert.False(t, p.contains(hostIP("11.0.0.1")))
	assert.False(t, p.contains(nil))
}
