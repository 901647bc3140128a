package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type ctxKey int

const principalKey ctxKey = 1

// OperatorHeader carries the configured "email|password" pair for the
// privileged operator path.
const OperatorHeader = "X-Operator-Auth"

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// Required rebuilds the principal on every request, either from the Bearer
// token or from the operator header, and destroys its key material when
// the handler returns. Nothing key-shaped survives the request.
func Required(b *Builder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				p   *Principal
				err error
			)
			if op := r.Header.Get(OperatorHeader); op != "" {
				p, err = b.FromOperatorHeader(r.Context(), op)
			} else {
				h := r.Header.Get("Authorization")
				if !strings.HasPrefix(h, "Bearer ") {
					http.Error(w, "missing bearer token", http.StatusUnauthorized)
					return
				}
				p, err = b.FromToken(r.Context(), strings.TrimPrefix(h, "Bearer "))
			}
			if errors.Is(err, ErrUnauthenticated) {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			defer p.Destroy()
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// MustPrincipal extracts the request principal or fails early.
func MustPrincipal(r *http.Request) (*Principal, error) {
	if p, ok := FromContext(r.Context()); ok {
		return p, nil
	}
	return nil, errors.New("no principal in context")
}
