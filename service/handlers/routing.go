package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/gorilla/mux"
	"github.com/pitabwire/util"
)

func (h *AuthServer) addHandler(router *mux.Router,
	f func(w http.ResponseWriter, r *http.Request) error, path string, name string, method string) {

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err != nil {
			util.Log(r.Context()).WithError(err).
				WithField("path", path).WithField("name", name).Debug("handler error")
			h.writeError(r.Context(), w, err)
		}
	})

	router.Path(path).
		Name(name).
		Handler(handler).
		Methods(method)
}

// bearerToken extracts the session token from the Authorization header or,
// for browser clients, from the signed session cookie.
func (h *AuthServer) bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}

	var token string
	for _, codec := range h.sessionCookieCodec {
		if decodeErr := codec.Decode(SessionCookieKey, cookie.Value, &token); decodeErr == nil {
			return token
		}
	}
	return ""
}

// authenticationMiddleware resolves the bearer token to an account and puts
// both on the request context. Requests without a valid session get 401.
func (h *AuthServer) authenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := h.bearerToken(r)
		account, err := h.sessionBiz.Validate(ctx, token)
		if err != nil {
			h.writeError(ctx, w, err)
			return
		}
		if account == nil {
			h.writeJSON(ctx, w, http.StatusUnauthorized, &ErrorResponse{
				Code:    http.StatusUnauthorized,
				Message: "authentication required",
			})
			return
		}

		ctx = AccountToContext(ctx, account)
		ctx = TokenToContext(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole rejects authenticated callers whose role does not pass check.
func (h *AuthServer) requireRole(check func(models.Role) bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		account := AccountFromContext(ctx)
		if account == nil || !check(models.Role(account.Role)) {
			h.writeJSON(ctx, w, http.StatusForbidden, &ErrorResponse{
				Code:    http.StatusForbidden,
				Message: "operation not permitted",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SetupRouterV1 -
func (h *AuthServer) SetupRouterV1(_ context.Context) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)

	// Public routes
	h.addHandler(router, h.LoginEndpoint, "/api/login", "LoginEndpoint", "POST")
	h.addHandler(router, h.VerifyMfaEndpoint, "/api/login/mfa", "VerifyMfaEndpoint", "POST")
	h.addHandler(router, h.LogoutEndpoint, "/api/logout", "LogoutEndpoint", "POST")
	h.addHandler(router, h.RegisterEndpoint, "/api/register", "RegisterEndpoint", "POST")
	h.addHandler(router, h.RequestPasswordResetEndpoint, "/api/password/reset", "RequestPasswordResetEndpoint", "POST")
	h.addHandler(router, h.VerifyPasswordResetEndpoint, "/api/password/reset/verify", "VerifyPasswordResetEndpoint", "POST")
	h.addHandler(router, h.ConfirmPasswordResetEndpoint, "/api/password/reset/confirm", "ConfirmPasswordResetEndpoint", "POST")

	// Routes requiring an authenticated session
	authenticated := func(f func(w http.ResponseWriter, r *http.Request) error, path string, name string, method string) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := f(w, r)
			if err != nil {
				h.writeError(r.Context(), w, err)
			}
		})
		router.Path(path).
			Name(name).
			Handler(h.authenticationMiddleware(handler)).
			Methods(method)
	}

	authenticated(h.WhoamiEndpoint, "/api/session", "WhoamiEndpoint", "GET")
	authenticated(h.ChangePasswordEndpoint, "/api/password", "ChangePasswordEndpoint", "POST")
	authenticated(h.SetupMfaEndpoint, "/api/mfa/setup", "SetupMfaEndpoint", "POST")
	authenticated(h.EnableMfaEndpoint, "/api/mfa/enable", "EnableMfaEndpoint", "POST")
	authenticated(h.DisableMfaEndpoint, "/api/mfa/disable", "DisableMfaEndpoint", "POST")

	// Admin routes
	admin := func(f func(w http.ResponseWriter, r *http.Request) error, path string, name string, method string) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := f(w, r)
			if err != nil {
				h.writeError(r.Context(), w, err)
			}
		})
		gated := h.requireRole(models.Role.CanImpersonate, handler)
		router.Path(path).
			Name(name).
			Handler(h.authenticationMiddleware(gated)).
			Methods(method)
	}

	admin(h.ImpersonateEndpoint, "/api/admin/impersonate", "ImpersonateEndpoint", "POST")
	admin(h.EnrollEndpoint, "/api/admin/accounts", "EnrollEndpoint", "POST")
	admin(h.SweepEndpoint, "/api/admin/sweep", "SweepEndpoint", "POST")

	return router
}
