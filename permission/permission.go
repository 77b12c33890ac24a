package permission

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Common actions carried by backend permission payloads.
const (
	ActionManage = "manage"
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

const codeSeparator = ":"

// Permission is the canonical shape of a grant. The backend sends grants
// either as flat "resource:action" codes or as {resource, action} objects;
// both decode into this value so every comparison happens on one shape.
type Permission struct {
	Resource string
	Action   string
}

// Parse splits a flat permission code into its resource and action. A code
// without a separator is a bare resource with no action.
func Parse(code string) Permission {
	code = strings.TrimSpace(code)
	resource, action, found := strings.Cut(code, codeSeparator)
	if !found {
		return Permission{Resource: code}
	}
	return Permission{
		Resource: strings.TrimSpace(resource),
		Action:   strings.TrimSpace(action),
	}
}

// Code returns the flat "resource:action" form.
func (p Permission) Code() string {
	if p.Action == "" {
		return p.Resource
	}
	return p.Resource + codeSeparator + p.Action
}

// IsZero reports whether p carries no resource.
func (p Permission) IsZero() bool {
	return p.Resource == ""
}

func (p Permission) String() string {
	return p.Code()
}

type permissionObject struct {
	Resource string `json:"resource,omitempty"`
	Action   string `json:"action,omitempty"`
	Code     string `json:"code,omitempty"`
}

// MarshalJSON writes the structured form.
func (p Permission) MarshalJSON() ([]byte, error) {
	return json.Marshal(permissionObject{Resource: p.Resource, Action: p.Action})
}

// UnmarshalJSON accepts a flat code string, a {resource, action} object,
// or an object carrying only a code.
func (p *Permission) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty permission")
	}

	if data[0] == '"' {
		var code string
		if err := json.Unmarshal(data, &code); err != nil {
			return err
		}
		*p = Parse(code)
		return nil
	}

	var obj permissionObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Resource == "" && obj.Code != "" {
		*p = Parse(obj.Code)
		return nil
	}
	*p = Permission{
		Resource: strings.TrimSpace(obj.Resource),
		Action:   strings.TrimSpace(obj.Action),
	}
	return nil
}

// Role is an immutable snapshot of a backend role.
type Role struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Level    int    `json:"level"`
	IsSystem bool   `json:"is_system"`
	ScopeID  int64  `json:"scope_id"`
}

// Payload is the role/permission document returned by the backend for the
// current session.
type Payload struct {
	IsSuper     bool         `json:"is_super"`
	Roles       []Role       `json:"roles"`
	Permissions []Permission `json:"permissions"`
}
