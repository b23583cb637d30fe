package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/IamDejman/demirti-web-sub003/service/models"
)

type registerBody struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *AuthServer) RegisterEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body registerBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return h.writeJSON(ctx, rw, http.StatusBadRequest, &ErrorResponse{
			Code: http.StatusBadRequest, Message: "malformed request body",
		})
	}

	if body.Email == "" || body.Password == "" {
		return h.writeJSON(ctx, rw, http.StatusBadRequest, &ErrorResponse{
			Code: http.StatusBadRequest, Message: "email and password are required",
		})
	}

	account, err := h.accountBiz.Register(ctx, body.Email, body.Name, body.Password)
	if err != nil {
		return err
	}

	return h.writeJSON(ctx, rw, http.StatusCreated, summariseAccount(account))
}

type enrollBody struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// EnrollEndpoint creates an invite style account with no password set. The
// owner claims it through the password reset flow.
func (h *AuthServer) EnrollEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()

	var body enrollBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return h.writeJSON(ctx, rw, http.StatusBadRequest, &ErrorResponse{
			Code: http.StatusBadRequest, Message: "malformed request body",
		})
	}

	role := models.Role(body.Role)
	if body.Email == "" || !role.Valid() {
		return h.writeJSON(ctx, rw, http.StatusBadRequest, &ErrorResponse{
			Code: http.StatusBadRequest, Message: "email and a known role are required",
		})
	}

	account, err := h.accountBiz.Enroll(ctx, body.Email, body.Name, role)
	if err != nil {
		return err
	}

	return h.writeJSON(ctx, rw, http.StatusCreated, summariseAccount(account))
}
