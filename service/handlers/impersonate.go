package handlers

import (
	"encoding/json"
	"net/http"
)

type impersonateBody struct {
	Target string `json:"target"`
}

type impersonateResponse struct {
	Token   string         `json:"token"`
	Account accountSummary `json:"account"`
}

// ImpersonateEndpoint mints a session for another account on behalf of an
// elevated operator. Role gating happens in the router, target resolution
// and the audit trail happen in the business layer.
func (h *AuthServer) ImpersonateEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body impersonateBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return h.writeJSON(ctx, rw, http.StatusBadRequest, &ErrorResponse{
			Code: http.StatusBadRequest, Message: "malformed request body",
		})
	}

	operator := AccountFromContext(ctx)
	result, err := h.impersonationBiz.Impersonate(ctx, operator.GetID(), body.Target)
	if err != nil {
		return err
	}

	return h.writeJSON(ctx, rw, http.StatusOK, &impersonateResponse{
		Token:   result.Token,
		Account: summariseAccount(result.Target),
	})
}
