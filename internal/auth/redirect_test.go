package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRedirect(t *testing.T) {
	const base = "https://homestead.example"

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"signout path", "/api/auth/signout", base + "/"},
		{"signout absolute", "https://homestead.example/signout?x=1", base + "/"},
		{"signout on other origin", "https://evil.example/signout", base + "/"},
		{"relative", "/dashboard", base + "/dashboard"},
		{"relative with query", "/properties/3?tab=photos", base + "/properties/3?tab=photos"},
		{"same origin absolute", base + "/profile", base + "/profile"},
		{"other origin", "https://evil.example/profile", base},
		{"prefix lookalike host", "https://homestead.example.evil.com/x", base},
		{"protocol relative", "//evil.example/x", base},
		{"backslash trick", `/\evil.example`, base},
		{"javascript scheme", "javascript:alert(1)", base},
		{"empty", "", base},
		{"garbage", "::::", base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRedirect(tt.target, base))
		})
	}
}

func TestResolveRedirect_TrailingSlashBase(t *testing.T) {
	assert.Equal(t, "http://localhost:3000/a", ResolveRedirect("/a", "http://localhost:3000/"))
	assert.Equal(t, "http://localhost:3000/", SignOutRedirect("http://localhost:3000/"))
}
