package api

import (
	"context"
	"net/http"
	"regexp"
	"strings"
)

// UserHeader carries the caller's identity. Requests without it are guests.
const UserHeader = "X-Socratic-User"

type contextKey int

const ownerKey contextKey = iota

var ownerPattern = regexp.MustCompile(`^[A-Za-z0-9._:@-]{1,128}$`)

// OwnerFromContext returns the caller identity, empty for guests.
func OwnerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ownerKey).(string); ok {
		return v
	}
	return ""
}

func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(UserHeader))
		if owner != "" && !ownerPattern.MatchString(owner) {
			writeErrorBody(w, http.StatusBadRequest, "invalid "+UserHeader+" header", false)
			return
		}
		ctx := context.WithValue(r.Context(), ownerKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
