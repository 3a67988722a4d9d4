// Package requestmeta resolves request scheme and origin facts used by the
// cookie writers and the cross-origin form guard.
package requestmeta

import (
	"net/http"
	"net/url"
	"strings"
)

// SchemePolicy controls how the request scheme is resolved.
//
// X-Forwarded-Proto is only read when TrustForwardedProto is set.
type SchemePolicy struct {
	TrustForwardedProto bool
}

// IsHTTPSWithPolicy reports whether a request should be treated as HTTPS
// under policy.
func IsHTTPSWithPolicy(r *http.Request, policy SchemePolicy) bool {
	return scheme(r, policy) == "https"
}

// HasSameOriginProofWithPolicy reports whether Origin, or failing that
// Referer, names the host the request was sent to.
func HasSameOriginProofWithPolicy(r *http.Request, policy SchemePolicy) bool {
	if r == nil {
		return false
	}
	claimed := strings.TrimSpace(r.Header.Get("Origin"))
	if claimed == "" {
		claimed = strings.TrimSpace(r.Header.Get("Referer"))
	}
	if claimed == "" {
		return false
	}
	return sameOrigin(claimed, origin(r, policy))
}

// IsCrossOriginWrite reports whether r is a state-changing request whose
// Origin or Referer names another site. Requests carrying neither header are
// not treated as cross-origin.
func IsCrossOriginWrite(r *http.Request, policy SchemePolicy) bool {
	if r == nil {
		return false
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	if r.Header.Get("Origin") == "" && r.Header.Get("Referer") == "" {
		return false
	}
	return !HasSameOriginProofWithPolicy(r, policy)
}

type originParts struct {
	scheme string
	host   string
	port   string
}

func origin(r *http.Request, policy SchemePolicy) originParts {
	parts := originParts{scheme: scheme(r, policy)}
	parts.host, parts.port = hostParts(r.Host)
	if parts.host == "" && r.URL != nil {
		parts.host, parts.port = hostParts(r.URL.Host)
	}
	if parts.port == "" {
		parts.port = defaultPort(parts.scheme)
	}
	return parts
}

func sameOrigin(raw string, request originParts) bool {
	parsed, err := url.Parse(raw)
	if err != nil || request.host == "" {
		return false
	}
	claimedScheme := strings.ToLower(parsed.Scheme)
	if claimedScheme == "" || claimedScheme != request.scheme {
		return false
	}
	if strings.ToLower(parsed.Hostname()) != request.host {
		return false
	}
	port := parsed.Port()
	if port == "" {
		port = defaultPort(claimedScheme)
	}
	return port != "" && port == request.port
}

func scheme(r *http.Request, policy SchemePolicy) string {
	if r == nil {
		return ""
	}
	if policy.TrustForwardedProto {
		if forwarded := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); forwarded == "http" || forwarded == "https" {
			return forwarded
		}
	}
	if r.URL != nil {
		if value := strings.ToLower(r.URL.Scheme); value == "http" || value == "https" {
			return value
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func defaultPort(scheme string) string {
	switch scheme {
	case "https":
		return "443"
	case "http":
		return "80"
	default:
		return ""
	}
}

func hostParts(rawHost string) (string, string) {
	parsed, err := url.Parse("//" + strings.TrimSpace(rawHost))
	if err != nil {
		return "", ""
	}
	return strings.ToLower(parsed.Hostname()), parsed.Port()
}
