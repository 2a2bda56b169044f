package utils_test

import (
	"net/url"
	"testing"

	"github.com/jrsteele09/go-partner-dashboard/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestJoinURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"bare host", "https://api.test", "/api/auth/login/", "https://api.test/api/auth/login/"},
		{"host with slash", "https://api.test/", "/api/auth/login/", "https://api.test/api/auth/login/"},
		{"path prefix", "https://api.test/backend", "/api/auth/token/refresh/", "https://api.test/backend/api/auth/token/refresh/"},
		{"path prefix with slash", "https://api.test/backend/", "api/countries/", "https://api.test/backend/api/countries/"},
		{"query kept", "https://api.test/backend", "/api/partners/?page=2", "https://api.test/backend/api/partners/?page=2"},
		{"escaped id kept", "https://api.test", "/api/phone-numbers/%2B233%2F1/", "https://api.test/api/phone-numbers/%2B233%2F1/"},
		{"absolute left alone", "https://api.test/backend", "https://files.test/export.csv", "https://files.test/export.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := url.Parse(tt.base)
			require.NoError(t, err)
			require.Equal(t, tt.want, utils.JoinURL(base, tt.path))
		})
	}
}
