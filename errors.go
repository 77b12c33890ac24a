package console

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Reales09/reserve-sub002/internal/api"
)

var (
	// ErrAuthentication matches every failed login or password change.
	ErrAuthentication = errors.New("authentication failed")
	// ErrBusinessMembership matches rejected business switches and token
	// exchanges for businesses outside the membership set.
	ErrBusinessMembership = errors.New("business membership rejected")
	// ErrNetwork matches failures to reach the backend.
	ErrNetwork = errors.New("backend unreachable")
	// ErrAPI matches backend replies that could not be used.
	ErrAPI = errors.New("backend request failed")
	// ErrNotAuthenticated is returned when an operation needs a valid session
	// token and none is stored.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionChanged is returned when a backend result arrives after the
	// session it was requested for was replaced or cleared.
	ErrSessionChanged = errors.New("session changed while request was in flight")
	// ErrInvalidBusinessID is returned for negative business ids.
	ErrInvalidBusinessID = errors.New("invalid business id")
	// ErrSessionPersist wraps failed writes to the session backend.
	ErrSessionPersist = errors.New("session persistence failed")
	// ErrConsoleNotReady is returned by a Console that was not built or has
	// no session store for the call.
	ErrConsoleNotReady = errors.New("console not initialized")
)

const defaultAuthMessage = "invalid credentials"

// AuthenticationError carries the backend message of a rejected login.
type AuthenticationError struct {
	Status  int
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return defaultAuthMessage
	}
	return e.Message
}

// Is reports whether target is [ErrAuthentication].
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// BusinessMembershipError names the business that was rejected and why.
type BusinessMembershipError struct {
	BusinessID int64
	// Reason is "not_a_member" or "membership_unknown".
	Reason string
}

func (e *BusinessMembershipError) Error() string {
	return fmt.Sprintf("business %d rejected: %s", e.BusinessID, e.Reason)
}

// Is reports whether target is [ErrBusinessMembership].
func (e *BusinessMembershipError) Is(target error) bool {
	return target == ErrBusinessMembership
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is reports whether target is [ErrNetwork].
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// APIError is a non-authentication backend failure.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Message)
}

// Is reports whether target is [ErrAPI], or [ErrNotAuthenticated] for a
// 401 reply.
func (e *APIError) Is(target error) bool {
	if target == ErrAPI {
		return true
	}
	return target == ErrNotAuthenticated && e.Status == http.StatusUnauthorized
}

// mapAPIError translates client errors into the public error types. Login
// and password change rejections are authentication errors.
func mapAPIError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, api.ErrTransport) {
		return &NetworkError{Err: err}
	}

	var re *api.ResponseError
	if !errors.As(err, &re) {
		return err
	}
	switch {
	case re.Endpoint == api.PathLogin:
		return &AuthenticationError{Status: re.Status, Message: re.Message}
	case re.Endpoint == api.PathChangePassword && re.Status >= 400 && re.Status < 500:
		return &AuthenticationError{Status: re.Status, Message: re.Message}
	}
	msg := re.Message
	if msg == "" && re.Malformed {
		msg = "malformed response"
	}
	return &APIError{Endpoint: re.Endpoint, Status: re.Status, Message: msg}
}

func authFailure(message string) error {
	return &AuthenticationError{Message: message}
}

func membershipFailure(businessID int64, reason string) error {
	return &BusinessMembershipError{BusinessID: businessID, Reason: reason}
}
