package auth

import (
	"net/url"
	"strings"
)

// SignOutRedirect is where every sign-out lands: the site root.
func SignOutRedirect(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/"
}

// ResolveRedirect picks the post-auth destination for target. Sign-out URLs
// go to the site root, same-origin targets are kept and everything else falls
// back to baseURL.
func ResolveRedirect(target, baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	target = strings.TrimSpace(target)

	if strings.Contains(target, "/signout") {
		return SignOutRedirect(base)
	}
	if target == "" {
		return base
	}

	// Relative path. "//host" and "/\host" are protocol-relative to browsers.
	if strings.HasPrefix(target, "/") {
		if strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
			return base
		}
		return base + target
	}

	t, err := url.Parse(target)
	if err != nil || t.Scheme == "" || t.Host == "" {
		return base
	}
	b, err := url.Parse(base)
	if err != nil {
		return base
	}
	if strings.EqualFold(t.Scheme, b.Scheme) && strings.EqualFold(t.Host, b.Host) {
		return target
	}
	return base
}
