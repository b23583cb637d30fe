package events

import (
	"context"
	"errors"

	"github.com/IamDejman/demirti-web-sub003/service/business"
	"github.com/IamDejman/demirti-web-sub003/service/models"
	"github.com/IamDejman/demirti-web-sub003/service/repository"
	"github.com/pitabwire/frame"
	frameevents "github.com/pitabwire/frame/events"
	"github.com/pitabwire/util"
	"gorm.io/datatypes"
)

const EventKeyAuditRecord = "audit.record.event"

// auditPayload is the wire form of a business.AuditEntry.
type auditPayload struct {
	Action   string         `json:"action"`
	ActorID  string         `json:"actor_id"`
	TargetID string         `json:"target_id"`
	SourceIP string         `json:"source_ip"`
	Details  map[string]any `json:"details"`
}

// EmitAuditRecorder pushes audit entries onto the service event queue so
// persistence happens off the request path. Emit failures are logged and
// swallowed, the parent operation never fails on audit trouble.
type EmitAuditRecorder struct {
	service *frame.Service
}

func NewEmitAuditRecorder(service *frame.Service) business.AuditRecorder {
	return &EmitAuditRecorder{service: service}
}

func (r *EmitAuditRecorder) Record(ctx context.Context, entry business.AuditEntry) {
	err := r.service.Emit(ctx, EventKeyAuditRecord, &auditPayload{
		Action:   entry.Action,
		ActorID:  entry.ActorID,
		TargetID: entry.TargetID,
		SourceIP: entry.SourceIP,
		Details:  entry.Details,
	})
	if err != nil {
		util.Log(ctx).WithError(err).WithField("action", entry.Action).
			Warn("could not emit audit event")
	}
}

// AuditRecordEvent consumes emitted audit payloads and persists them.
type AuditRecordEvent struct {
	auditRepo repository.AuditRepository
}

func NewAuditRecordEventHandler(auditRepo repository.AuditRepository) frameevents.EventI {
	return &AuditRecordEvent{auditRepo: auditRepo}
}

func (e *AuditRecordEvent) Name() string {
	return EventKeyAuditRecord
}

func (e *AuditRecordEvent) PayloadType() any {
	return &auditPayload{}
}

func (e *AuditRecordEvent) Validate(_ context.Context, payload any) error {
	record, ok := payload.(*auditPayload)
	if !ok {
		return errors.New("invalid payload type, expected *auditPayload")
	}
	if record.Action == "" {
		return errors.New("audit payload without an action")
	}
	return nil
}

func (e *AuditRecordEvent) Execute(ctx context.Context, payload any) error {
	record, ok := payload.(*auditPayload)
	if !ok {
		return errors.New("invalid payload type, expected *auditPayload")
	}

	return e.auditRepo.Save(ctx, &models.AuditRecord{
		Action:   record.Action,
		ActorID:  record.ActorID,
		TargetID: record.TargetID,
		SourceIP: record.SourceIP,
		Details:  datatypes.JSONMap(record.Details),
	})
}
