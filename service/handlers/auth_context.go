package handlers

import (
	"context"

	"github.com/IamDejman/demirti-web-sub003/service/models"
)

type contextKey string

func (c contextKey) String() string {
	return "authentication/" + string(c)
}

const ctxKeyAccount = contextKey("accountKey")
const ctxKeyToken = contextKey("tokenKey")

// AccountToContext pushes the authenticated account into the supplied context.
func AccountToContext(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, ctxKeyAccount, account)
}

// AccountFromContext obtains the authenticated account propagated through the context.
func AccountFromContext(ctx context.Context) *models.Account {
	account, ok := ctx.Value(ctxKeyAccount).(*models.Account)
	if !ok {
		return nil
	}
	return account
}

// TokenToContext pushes the presented bearer token into the supplied context.
func TokenToContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyToken, token)
}

// TokenFromContext obtains the presented bearer token propagated through the context.
func TokenFromContext(ctx context.Context) string {
	token, ok := ctx.Value(ctxKeyToken).(string)
	if !ok {
		return ""
	}
	return token
}
