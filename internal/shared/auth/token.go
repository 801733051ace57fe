package auth

import (
	"net/http"
	"strings"
)

// ExtractBearerToken extracts the token from the Authorization header.
// It returns an empty string if no bearer token is present.
func ExtractBearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	return ExtractBearerTokenFromHeader(r.Header.Get("Authorization"))
}

// ExtractBearerTokenFromHeader extracts the token from an Authorization header value.
// The scheme is matched case-insensitively.
//
// Example:
//
//	token := ExtractBearerTokenFromHeader("Bearer eyJhbGciOiJIUzI1NiIs...")
func ExtractBearerTokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	const bearerPrefix = "bearer "
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// BearerHeader formats a token for the Authorization header.
func BearerHeader(token string) string {
	return "Bearer " + strings.TrimSpace(token)
}
