package repository

import (
	"context"

	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/pitabwire/frame"
)

func Migrate(ctx context.Context, svc *frame.Service, migrationPath string) error {
	return svc.MigrateDatastore(ctx, migrationPath,
		&models.Account{}, &models.Session{}, &models.PasswordResetRequest{},
		&models.MfaSecret{}, &models.MfaChallenge{},
		&models.Impersonation{}, &models.AuditRecord{})
}
