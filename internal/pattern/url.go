package pattern

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/JakeFAU/page-archiver/internal/archive"
)

// Parse validates rawURL as an absolute http(s) URL and normalizes its scheme
// and host. Default ports and fragments are dropped.
func Parse(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty url", archive.ErrInvalidURL)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrInvalidURL, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https: %q", archive.ErrInvalidURL, rawURL)
	}
	if u.Opaque != "" || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host: %q", archive.ErrInvalidURL, rawURL)
	}

	u.Host = strings.ToLower(u.Host)
	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	u.Fragment = ""
	return u, nil
}

// Redact removes userinfo from rawURL so it can be recorded or logged.
// URLs without credentials, and URLs that do not parse, are returned trimmed
// but otherwise unchanged.
func Redact(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	u, err := url.Parse(trimmed)
	if err != nil || u.User == nil {
		return trimmed
	}
	u.User = nil
	return u.String()
}

// segments splits a URL's escaped path into its non-empty parts, which also
// normalizes trailing and repeated slashes away. Each part is unescaped when
// the result is valid UTF-8 without a slash; otherwise it is re-escaped so
// the same URL always yields the same text, and that text survives a JSON
// round trip unchanged.
func segments(u *url.URL) []string {
	parts := strings.Split(u.EscapedPath(), "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		out = append(out, segment(part))
	}
	return out
}

func segment(escaped string) string {
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		return strings.ToValidUTF8(escaped, "")
	}
	if utf8.ValidString(decoded) && !strings.Contains(decoded, "/") {
		return decoded
	}
	return url.PathEscape(decoded)
}
