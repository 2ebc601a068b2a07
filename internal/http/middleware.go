package http

import (
	"context"
	"net/http"
	"strings"
)

// Identity headers are set by the fronting gateway after authentication.
// This service trusts them; authentication policy itself lives upstream.
const (
	HeaderUserID = "X-User-Id"
	HeaderAdmin  = "X-Admin"
)

type ctxKey string

const (
	ctxUserID ctxKey = "user_id"
	ctxAdmin  ctxKey = "is_admin"
)

// Identity copies the gateway identity headers into the request context.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if uid := strings.TrimSpace(r.Header.Get(HeaderUserID)); uid != "" {
			ctx = context.WithValue(ctx, ctxUserID, uid)
		}
		if strings.EqualFold(r.Header.Get(HeaderAdmin), "true") {
			ctx = context.WithValue(ctx, ctxAdmin, true)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func IsAdmin(ctx context.Context) bool {
	v, ok := ctx.Value(ctxAdmin).(bool)
	return ok && v
}

// RequireUser rejects requests that reached an authenticated route without a
// principal.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserID(r.Context()) == "" {
			writeError(w, http.StatusBadRequest, "missing required header: "+HeaderUserID)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin guards administrative routes.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
