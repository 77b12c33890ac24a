package console

import (
	"io"
	"log/slog"
	"time"

	internalaudit "github.com/Reales09/reserve-sub002/internal/audit"
	"github.com/Reales09/reserve-sub002/internal/flows"
	"github.com/Reales09/reserve-sub002/navigation"
	"github.com/Reales09/reserve-sub002/permission"
	"github.com/Reales09/reserve-sub002/session"
)

// User is the identity stored for the current session.
type User = session.User

// BusinessMembership is one business the user belongs to.
type BusinessMembership = session.BusinessMembership

// BusinessColors is the theme of the active business.
type BusinessColors = session.BusinessColors

// BusinessToken is a token scoped to one business.
type BusinessToken = session.BusinessToken

// Role is a role granted to the user.
type Role = permission.Role

// Permission is a resource:action grant.
type Permission = permission.Permission

// Payload is the role/permission payload fetched after login.
type Payload = permission.Payload

// Evaluator answers authorization questions over a [Payload].
type Evaluator = permission.Evaluator

// Module is one entry of the navigation table.
type Module = navigation.Module

// Outcome is the terminal state of a successful login.
type Outcome = flows.Outcome

const (
	// OutcomeReady means the session can use the main application.
	OutcomeReady = flows.OutcomeReady
	// OutcomePasswordChangeRequired means the user must change the password
	// before anything else; permissions have not been loaded.
	OutcomePasswordChangeRequired = flows.OutcomePasswordChangeRequired
)

// LoginResult is returned by [Console.Login] and [Console.ChangePassword].
// Redirect is the route the caller should navigate to.
type LoginResult = flows.LoginResult

// Session is the materialized view of the stored session.
type Session struct {
	Token     string
	User      *User
	ExpiresAt time.Time
}

// State is the position of the stored session in the login lifecycle.
type State int

const (
	// StateAnonymous has no valid token.
	StateAnonymous State = iota
	// StatePasswordChangeRequired has a token but must change the password.
	StatePasswordChangeRequired
	// StateAuthenticatedNoPermissions has a token but no cached payload.
	StateAuthenticatedNoPermissions
	// StateAuthenticatedWithPermissions is fully loaded.
	StateAuthenticatedWithPermissions
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StatePasswordChangeRequired:
		return "password_change_required"
	case StateAuthenticatedNoPermissions:
		return "authenticated_no_permissions"
	case StateAuthenticatedWithPermissions:
		return "authenticated_with_permissions"
	default:
		return "unknown"
	}
}

// AuditEvent is one session lifecycle record.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink forwards audit events into a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON audit event per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// LogSink writes audit events to a slog logger.
type LogSink = internalaudit.LogSink

// NewChannelSink returns a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewLogSink returns a [LogSink] writing to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return internalaudit.NewLogSink(logger)
}
