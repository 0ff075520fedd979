package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Techbhatia/groupease/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// SubjectKey is the context key for the authenticated caller's
	// auth-provider subject. The subject is opaque; resolving it to a user
	// profile happens inside each operation, never here.
	SubjectKey ContextKey = "auth_subject"
)

// AuthMiddleware extracts the caller's subject from a bearer token
// TODO: Implement proper JWT validation
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		subject := subjectFromToken(parts[1])
		if subject == "" {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), SubjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// subjectFromToken is a placeholder for JWT validation
// TODO: Implement proper JWT validation
func subjectFromToken(token string) string {
	// Placeholder: In production, decode and validate the JWT and return
	// the sub claim. For development, the token itself is the subject.
	return token
}

// TestSubjectMiddleware allows setting the caller subject via the
// X-Auth-Subject header (DEV ONLY). This makes it easy to test as
// different users without real auth
func TestSubjectMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subject := r.Header.Get("X-Auth-Subject"); subject != "" {
			ctx := context.WithValue(r.Context(), SubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSubject extracts the caller subject from the request context
func GetSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectKey).(string)
	return subject, ok
}
