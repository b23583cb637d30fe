package handlers

import (
	"encoding/json"
	"net/http"
)

type passwordResetRequestBody struct {
	Email string `json:"email"`
}

// RequestPasswordResetEndpoint always reports success, even for an unknown
// email, so the endpoint cannot be used to enumerate accounts.
func (h *AuthServer) RequestPasswordResetEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body passwordResetRequestBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return h.writeJSON(ctx, rw, http.StatusBadRequest, &ErrorResponse{
			Code: http.StatusBadRequest, Message: "malformed request body",
		})
	}

	err := h.resetBiz.Request(ctx, body.Email)
	if err != nil {
		return err
	}

	return h.writeJSON(ctx, rw, http.StatusOK, map[string]string{"status": "sent"})
}

type passwordResetVerifyBody struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyPasswordResetEndpoint peeks at the code so the UI can confirm it
// before asking for the new password. The code stays valid afterwards.
func (h *AuthServer) VerifyPasswordResetEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body passwordResetVerifyBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return h.writeJSON(ctx, rw, http.StatusBadRequest, &ErrorResponse{
			Code: http.StatusBadRequest, Message: "malformed request body",
		})
	}

	valid, err := h.resetBiz.Verify(ctx, body.Email, body.Code)
	if err != nil {
		return err
	}

	return h.writeJSON(ctx, rw, http.StatusOK, map[string]bool{"valid": valid})
}

type passwordResetConfirmBody struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (h *AuthServer) ConfirmPasswordResetEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body passwordResetConfirmBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return h.writeJSON(ctx, rw, http.StatusBadRequest, &ErrorResponse{
			Code: http.StatusBadRequest, Message: "malformed request body",
		})
	}

	account, err := h.resetBiz.ConsumeAndReset(ctx, body.Email, body.Code, body.NewPassword)
	if err != nil {
		return err
	}

	return h.writeJSON(ctx, rw, http.StatusOK, summariseAccount(account))
}

type changePasswordBody struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *AuthServer) ChangePasswordEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body changePasswordBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return h.writeJSON(ctx, rw, http.StatusBadRequest, &ErrorResponse{
			Code: http.StatusBadRequest, Message: "malformed request body",
		})
	}

	account := AccountFromContext(ctx)
	err := h.accountBiz.ChangePassword(ctx, account.GetID(), body.OldPassword, body.NewPassword)
	if err != nil {
		return err
	}

	h.clearSessionCookie(rw)
	return h.writeJSON(ctx, rw, http.StatusOK, map[string]string{"status": "password_changed"})
}
