package console

import (
	"context"
	"errors"

	internalaudit "github.com/Reales09/reserve-sub002/internal/audit"
)

// AuditErrorCode is the stable error label recorded on failed audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrNotAMember         AuditErrorCode = "not_a_member"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrBackend            AuditErrorCode = "backend_error"
	auditErrSessionChanged     AuditErrorCode = "session_changed"
	auditErrInvalidBusinessID  AuditErrorCode = "invalid_business_id"
	auditErrSessionPersist     AuditErrorCode = "session_persist_failed"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (c *Console) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID int64,
	businessID *int64,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	event := internalaudit.New(eventType, success, c.now())
	event.UserID = userID
	event.BusinessID = businessID
	if metadataBuilder != nil {
		event.Metadata = metadataBuilder()
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrAuthentication):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrBusinessMembership):
		return auditErrNotAMember
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrUnauthorized
	case errors.Is(err, ErrNetwork):
		return auditErrUnavailable
	case errors.Is(err, ErrAPI):
		return auditErrBackend
	case errors.Is(err, ErrSessionChanged):
		return auditErrSessionChanged
	case errors.Is(err, ErrInvalidBusinessID):
		return auditErrInvalidBusinessID
	case errors.Is(err, ErrSessionPersist):
		return auditErrSessionPersist
	default:
		return auditErrInternal
	}
}
