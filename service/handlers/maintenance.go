package handlers

import (
	"net/http"

	"github.com/pitabwire/util"
)

// SweepEndpoint prunes expired sessions, reset codes, pending challenges
// and in-memory throttle state. It exists so an operator or a cron can
// reclaim storage without a dedicated background worker per table.
func (h *AuthServer) SweepEndpoint(rw http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()
	log := util.Log(ctx)

	if err := h.sessionRepo.DeleteExpired(ctx); err != nil {
		log.WithError(err).Error("could not prune expired sessions")
		return err
	}
	if err := h.resetRepo.DeleteExpired(ctx); err != nil {
		log.WithError(err).Error("could not prune expired reset codes")
		return err
	}
	if err := h.challengeRepo.DeleteExpired(ctx); err != nil {
		log.WithError(err).Error("could not prune expired challenges")
		return err
	}

	if h.limiter != nil {
		h.limiter.Sweep(ctx)
	}
	if h.backoff != nil {
		h.backoff.Sweep(ctx)
	}

	log.Debug("expired authentication state pruned")
	return h.writeJSON(ctx, rw, http.StatusOK, map[string]string{"status": "swept"})
}
