package main

import (
	"context"
	"net/http"
	"os"

	"github.com/IamDejman/demirti-web-sub003/config"
	"github.com/IamDejman/demirti-web-sub003/service/business"
	"github.com/IamDejman/demirti-web-sub003/service/events"
	authhandlers "github.com/IamDejman/demirti-web-sub003/service/handlers"
	"github.com/IamDejman/demirti-web-sub003/service/repository"
	"github.com/IamDejman/demirti-web-sub003/utils"
	"github.com/gorilla/handlers"
	"github.com/pitabwire/frame"
	frameconfig "github.com/pitabwire/frame/config"
	"github.com/pitabwire/util"
)

func main() {

	ctx := context.Background()
	serviceName := "service_auth_sessions"

	cfg, err := frameconfig.LoadWithOIDC[config.AuthConfig](ctx)
	if err != nil {
		util.Log(ctx).WithError(err).Fatal("could not process configs")
		return
	}

	ctx, svc := frame.NewServiceWithContext(ctx, serviceName, frame.WithConfig(&cfg))
	log := svc.Log(ctx)

	serviceOptions := []frame.Option{frame.WithDatastore()}

	// Handle database migration if requested
	if handleDatabaseMigration(ctx, svc, cfg, log) {
		return
	}

	accountRepo := repository.NewAccountRepository(svc)
	sessionRepo := repository.NewSessionRepository(svc)
	resetRepo := repository.NewPasswordResetRepository(svc)
	secretRepo := repository.NewMfaSecretRepository(svc)
	challengeRepo := repository.NewMfaChallengeRepository(svc)
	impersonationRepo := repository.NewImpersonationRepository(svc)
	auditRepo := repository.NewAuditRepository(svc)

	hasher := utils.NewBCrypt()
	recorder := events.NewEmitAuditRecorder(svc)

	limiter := business.NewRateLimiter(business.RateLimitConfig{
		MaxAttempts: cfg.LoginRateLimitMaxAttempts,
		Window:      cfg.LoginRateLimitWindow(),
	}, business.NewMemoryBucketStore())
	backoff := business.NewBackoffCounter(business.BackoffConfig{
		Base: cfg.LoginBackoffBase(),
		Max:  cfg.LoginBackoffMax(),
	})

	sessionBiz := business.NewSessionBusiness(cfg.SessionDuration(), sessionRepo, accountRepo)
	mfaBiz := business.NewMfaBusiness(
		cfg.MfaIssuer, cfg.MfaCodeSkew, cfg.MfaChallengeDuration(),
		secretRepo, challengeRepo, accountRepo, recorder)
	resetBiz := business.NewPasswordResetBusiness(
		cfg.PasswordResetCodeLength, cfg.PasswordResetCodeDuration(),
		resetRepo, accountRepo, sessionBiz, hasher, business.NoopResetNotifier{}, recorder)
	loginBiz := business.NewLoginBusiness(
		limiter, backoff, accountRepo, hasher, sessionBiz, mfaBiz, recorder)
	accountBiz := business.NewAccountBusiness(accountRepo, sessionBiz, hasher, recorder)
	impersonationBiz := business.NewImpersonationBusiness(
		accountRepo, impersonationRepo, sessionBiz, recorder)

	srv := authhandlers.NewAuthServer(ctx, svc, &cfg, authhandlers.Dependencies{
		AccountRepo:   accountRepo,
		SessionRepo:   sessionRepo,
		ResetRepo:     resetRepo,
		SecretRepo:    secretRepo,
		ChallengeRepo: challengeRepo,

		Account:       accountBiz,
		Login:         loginBiz,
		Session:       sessionBiz,
		Reset:         resetBiz,
		Mfa:           mfaBiz,
		Impersonation: impersonationBiz,

		Limiter: limiter,
		Backoff: backoff,
	})

	var httpHandler http.Handler = srv.SetupRouterV1(ctx)
	httpHandler = handlers.RecoveryHandler()(httpHandler)
	httpHandler = handlers.CombinedLoggingHandler(os.Stdout, httpHandler)

	serviceOptions = append(serviceOptions,
		frame.WithHTTPHandler(httpHandler),
		frame.WithRegisterEvents(events.NewAuditRecordEventHandler(auditRepo)),
	)

	svc.Init(ctx, serviceOptions...)

	log.WithField("server http port", cfg.HTTPPort()).
		Info(" Initiating server operations")
	err = svc.Run(ctx, "")
	if err != nil {
		log.WithError(err).Error("could not run service")
	}
}

// handleDatabaseMigration performs database migration if configured to do so.
func handleDatabaseMigration(
	ctx context.Context,
	svc *frame.Service,
	cfg config.AuthConfig,
	log *util.LogEntry,
) bool {
	serviceOptions := []frame.Option{frame.WithDatastore()}

	if cfg.DoDatabaseMigrate() {
		svc.Init(ctx, serviceOptions...)

		err := repository.Migrate(ctx, svc, cfg.GetDatabaseMigrationPath())
		if err != nil {
			log.WithError(err).Fatal("main -- Could not migrate successfully")
		}
		return true
	}
	return false
}
