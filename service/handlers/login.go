package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/IamDejman/demirti-web-sub003/service/business"
	"github.com/pitabwire/util"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status             string `json:"status"`
	Token              string `json:"token,omitempty"`
	ChallengeToken     string `json:"challenge_token,omitempty"`
	MustChangePassword bool   `json:"must_change_password,omitempty"`
}

func (h *AuthServer) LoginEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body loginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return h.writeJSON(ctx, rw, http.StatusBadRequest, &ErrorResponse{
			Code: http.StatusBadRequest, Message: "malformed request body",
		})
	}

	result, err := h.loginBiz.Login(ctx, body.Email, body.Password, util.GetIP(req))
	if err != nil {
		return err
	}

	if result.Status == business.LoginStatusMfaRequired {
		return h.writeJSON(ctx, rw, http.StatusOK, &loginResponse{
			Status:         string(result.Status),
			ChallengeToken: result.Token,
		})
	}

	h.setSessionCookie(rw, result.Token)
	return h.writeJSON(ctx, rw, http.StatusOK, &loginResponse{
		Status:             string(result.Status),
		Token:              result.Token,
		MustChangePassword: result.MustChangePassword,
	})
}

type verifyMfaRequest struct {
	ChallengeToken string `json:"challenge_token"`
	Code           string `json:"code"`
}

func (h *AuthServer) VerifyMfaEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body verifyMfaRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return h.writeJSON(ctx, rw, http.StatusBadRequest, &ErrorResponse{
			Code: http.StatusBadRequest, Message: "malformed request body",
		})
	}

	result, err := h.loginBiz.VerifyMfa(ctx, body.ChallengeToken, body.Code, util.GetIP(req))
	if err != nil {
		return err
	}

	h.setSessionCookie(rw, result.Token)
	return h.writeJSON(ctx, rw, http.StatusOK, &loginResponse{
		Status:             string(result.Status),
		Token:              result.Token,
		MustChangePassword: result.MustChangePassword,
	})
}

func (h *AuthServer) LogoutEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	token := h.bearerToken(req)
	if token != "" {
		err := h.loginBiz.Logout(ctx, token)
		if err != nil {
			return err
		}
	}

	h.clearSessionCookie(rw)
	return h.writeJSON(ctx, rw, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *AuthServer) WhoamiEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	account := AccountFromContext(ctx)
	return h.writeJSON(ctx, rw, http.StatusOK, summariseAccount(account))
}

// setSessionCookie mirrors the bearer token into a signed cookie for
// browser clients. API clients can ignore it and use the header.
func (h *AuthServer) setSessionCookie(rw http.ResponseWriter, token string) {
	encoded, err := h.sessionCookieCodec[0].Encode(SessionCookieKey, token)
	if err != nil {
		return
	}

	http.SetCookie(rw, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(h.config.SessionDuration()),
	})
}

func (h *AuthServer) clearSessionCookie(rw http.ResponseWriter) {
	http.SetCookie(rw, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
