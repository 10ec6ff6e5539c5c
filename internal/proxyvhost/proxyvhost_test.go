package proxyvhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDomain(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		ok     bool
	}{
		{"simple", "example.com", true},
		{"subdomain", "api.example.com", true},
		{"empty", "", false},
		{"traversal", "../etc/passwd", false},
		{"slash", "example.com/../x", false},
		{"backslash", "example.com\\x", false},
		{"space", "example .com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDomain(tt.domain)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRender(t *testing.T) {
	out := render("example.com", 3000)
	assert.Contains(t, out, "server_name example.com;")
	assert.Contains(t, out, "proxy_pass http://127.0.0.1:3000;")
}
