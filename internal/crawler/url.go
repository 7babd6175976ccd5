package crawler

import (
	"net/url"
	"strings"
)

// sameHost reports whether u is in scope for the configured site: both
// scheme and host must match exactly. Cross-host links, subdomains and
// different schemes are rejected.
func sameHost(site, u *url.URL) bool {
	if u == nil || site == nil {
		return false
	}
	return strings.EqualFold(u.Scheme, site.Scheme) && strings.EqualFold(u.Host, site.Host)
}

// canonical normalises a URL for dedupe: lowercased scheme and host,
// default ports removed, fragment dropped, empty path mapped to "/".
func canonical(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	if host, port, ok := strings.Cut(c.Host, ":"); ok {
		if (c.Scheme == "http" && port == "80") || (c.Scheme == "https" && port == "443") {
			c.Host = host
		}
	}
	if c.Path == "" {
		c.Path = "/"
	}
	c.Fragment = ""
	return c.String()
}
