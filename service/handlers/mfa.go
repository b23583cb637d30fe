package handlers

import (
	"encoding/json"
	"net/http"
)

type mfaSetupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

func (h *AuthServer) SetupMfaEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	account := AccountFromContext(ctx)
	setup, err := h.mfaBiz.Setup(ctx, account.GetID())
	if err != nil {
		return err
	}

	return h.writeJSON(ctx, rw, http.StatusOK, &mfaSetupResponse{
		Secret:          setup.Secret,
		ProvisioningURI: setup.ProvisioningURI,
	})
}

type mfaCodeBody struct {
	Code string `json:"code"`
}

func (h *AuthServer) EnableMfaEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body mfaCodeBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return h.writeJSON(ctx, rw, http.StatusBadRequest, &ErrorResponse{
			Code: http.StatusBadRequest, Message: "malformed request body",
		})
	}

	account := AccountFromContext(ctx)
	err := h.mfaBiz.ConfirmEnable(ctx, account.GetID(), body.Code)
	if err != nil {
		return err
	}

	return h.writeJSON(ctx, rw, http.StatusOK, map[string]string{"status": "mfa_enabled"})
}

func (h *AuthServer) DisableMfaEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body mfaCodeBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return h.writeJSON(ctx, rw, http.StatusBadRequest, &ErrorResponse{
			Code: http.StatusBadRequest, Message: "malformed request body",
		})
	}

	account := AccountFromContext(ctx)
	err := h.mfaBiz.Disable(ctx, account.GetID(), body.Code)
	if err != nil {
		return err
	}

	return h.writeJSON(ctx, rw, http.StatusOK, map[string]string{"status": "mfa_disabled"})
}
