package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/alexanderramin/timekeep/internal/app"
)

var (
	ErrUnauthenticated = errors.New("caller is not authenticated")
	ErrForbidden       = errors.New("caller is not allowed to do this")
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	roleAdmin = "admin"
)

type headerKey struct{}

type callerKey struct{}

// HeaderIdentity trusts the X-User-ID and X-User-Role headers set by an
// authenticating proxy in front of the server.
type HeaderIdentity struct{}

func (HeaderIdentity) Resolve(ctx context.Context) (app.Caller, error) {
	h, _ := ctx.Value(headerKey{}).(http.Header)
	if h == nil {
		return app.Caller{}, ErrUnauthenticated
	}
	userID := strings.TrimSpace(h.Get(HeaderUserID))
	if userID == "" {
		return app.Caller{}, ErrUnauthenticated
	}
	return app.Caller{
		UserID:  userID,
		IsAdmin: strings.EqualFold(strings.TrimSpace(h.Get(HeaderUserRole)), roleAdmin),
	}, nil
}

// authenticate resolves the caller once per request and stores it in the
// request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), headerKey{}, r.Header)
		caller, err := s.identity.Resolve(ctx)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx = context.WithValue(ctx, callerKey{}, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !callerFrom(r.Context()).IsAdmin {
			writeErrorResponse(w, http.StatusForbidden, errorBody(ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerFrom(ctx context.Context) app.Caller {
	c, _ := ctx.Value(callerKey{}).(app.Caller)
	return c
}
