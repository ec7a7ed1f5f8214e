package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientMetadata(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		wantIP     string
	}{
		{
			name:       "x-forwarded-for takes the first entry",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			remoteAddr: "10.0.0.1:4321",
			wantIP:     "203.0.113.7",
		},
		{
			name:       "x-real-ip fallback",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			remoteAddr: "10.0.0.1:4321",
			wantIP:     "203.0.113.9",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.0.2.4:4321",
			wantIP:     "192.0.2.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotIP, gotUA string
			handler := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotIP = GetClientIP(r.Context())
				gotUA = GetUserAgent(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			req.Header.Set("User-Agent", "test-agent/1.0")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.wantIP, gotIP)
			assert.Equal(t, "test-agent/1.0", gotUA)
		})
	}
}

func TestWithClientMetadata(t *testing.T) {
	ctx := WithClientMetadata(context.Background(), "203.0.113.7", "test-agent/1.0")
	assert.Equal(t, "203.0.113.7", GetClientIP(ctx))
	assert.Equal(t, "test-agent/1.0", GetUserAgent(ctx))

	assert.Empty(t, GetClientIP(context.Background()))
	assert.Empty(t, GetUserAgent(context.Background()))
}
