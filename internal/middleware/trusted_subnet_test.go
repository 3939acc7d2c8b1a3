package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTrustedSubnetMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		trustedSubnet  string
		realIP         string
		remoteAddr     string
		expectedStatus int
	}{
		{
			name:           "Empty trusted subnet - should deny access",
			trustedSubnet:  "",
			realIP:         "192.168.1.100",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Invalid CIDR - should deny access",
			trustedSubnet:  "not-a-cidr",
			realIP:         "192.168.1.100",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Invalid IP address - should deny access",
			trustedSubnet:  "192.168.1.0/24",
			realIP:         "invalid-ip",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "IP not in trusted subnet - should deny access",
			trustedSubnet:  "192.168.1.0/24",
			realIP:         "10.0.0.1",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "IP in trusted subnet - should allow access",
			trustedSubnet:  "192.168.1.0/24",
			realIP:         "192.168.1.100",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Fallback to RemoteAddr - allowed",
			trustedSubnet:  "127.0.0.0/8",
			remoteAddr:     "127.0.0.1:54321",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Fallback to RemoteAddr - denied",
			trustedSubnet:  "127.0.0.0/8",
			remoteAddr:     "203.0.113.7:54321",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "IPv6 subnet",
			trustedSubnet:  "::1/128",
			realIP:         "::1",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := TrustedSubnetMiddleware(tt.trustedSubnet, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("OK"))
			}))

			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.remoteAddr != "" {
				req.RemoteAddr = tt.remoteAddr
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusForbidden {
				assert.JSONEq(t, `{"message":"Access denied"}`, w.Body.String())
			} else {
				assert.Equal(t, "OK", w.Body.String())
			}
		})
	}
}
