package httpx

import (
	"context"

	"github.com/woowonjae/blogauth/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUsername ctxKey = "username"
	CtxKeyRoles    ctxKey = "roles"
	CtxKeyClaims   ctxKey = "claims"
)

// UsernameFromCtx returns the authenticated subject, or "" outside an
// authenticated request.
func UsernameFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUsername).(string); ok {
		return v
	}
	return ""
}

func rolesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyRoles).([]string); ok {
		return v
	}
	return nil
}

// ClaimsFromCtx returns the full validated claims set, if present.
func ClaimsFromCtx(ctx context.Context) (jwtx.Claims, bool) {
	v, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return v, ok
}
