package host

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Path rejection reasons returned by CanonicalPath.
var (
	ErrPathBackslash = errors.New("path contains a backslash")
	ErrPathNUL       = errors.New("path contains a NUL byte")
	ErrPathEscape    = errors.New("path contains an invalid percent escape")
	ErrPathAboveRoot = errors.New("path climbs above the root")
)

// CanonicalPath cleans an escaped URL path. Repeated slashes collapse, "."
// and ".." segments resolve, and a trailing slash is dropped except at the
// root. The result always starts with "/".
func CanonicalPath(p string) (string, error) {
	decoded, err := url.PathUnescape(p)
	if err != nil {
		return "", ErrPathEscape
	}
	if strings.Contains(decoded, `\`) {
		return "", ErrPathBackslash
	}
	if strings.Contains(decoded, "\x00") {
		return "", ErrPathNUL
	}

	var out []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return "", ErrPathAboveRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), nil
}

// Canonical redirects requests for non-canonical paths to their canonical
// form and answers 400 for paths that cannot be cleaned. GET and HEAD get a
// 301; other methods get a 308 so the body is replayed.
func Canonical(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.EscapedPath()
		clean, err := CanonicalPath(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if clean == raw {
			next.ServeHTTP(w, r)
			return
		}

		target := clean
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		code := http.StatusPermanentRedirect
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			code = http.StatusMovedPermanently
		}
		http.Redirect(w, r, target, code)
	})
}
