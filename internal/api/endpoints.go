package api

import (
	"context"
	"net/http"

	"github.com/Reales09/reserve-sub002/permission"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUser is the user object of a login reply.
type LoginUser struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// Business is one membership of a login reply.
type Business struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Code            string `json:"code"`
	LogoURL         string `json:"logo_url"`
	IsActive        bool   `json:"is_active"`
	PrimaryColor    string `json:"primary_color"`
	SecondaryColor  string `json:"secondary_color"`
	TertiaryColor   string `json:"tertiary_color"`
	QuaternaryColor string `json:"quaternary_color"`
}

// LoginResponse is the data of a successful login.
type LoginResponse struct {
	Token                 string     `json:"token"`
	User                  LoginUser  `json:"user"`
	Businesses            []Business `json:"businesses"`
	IsSuperAdmin          bool       `json:"is_super_admin"`
	RequirePasswordChange bool       `json:"require_password_change"`
}

// ChangePasswordRequest is the body of POST /auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type businessTokenRequest struct {
	BusinessID int64 `json:"business_id"`
}

type businessTokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a session token. A reply without a token
// is malformed.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, PathLogin, "", req, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &ResponseError{Endpoint: PathLogin, Status: http.StatusOK, Malformed: true}
	}
	return &out, nil
}

// RolesPermissions fetches the role/permission payload of the token owner.
func (c *Client) RolesPermissions(ctx context.Context, token string) (*permission.Payload, error) {
	var out permission.Payload
	if err := c.do(ctx, http.MethodGet, PathRolesPermissions, authorization(SchemeBearer, token), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword rotates the password of the token owner.
func (c *Client) ChangePassword(ctx context.Context, token string, req ChangePasswordRequest) error {
	return c.do(ctx, http.MethodPost, PathChangePassword, authorization(SchemeBearer, token), req, nil)
}

// BusinessToken exchanges the session token for a token scoped to
// businessID.
func (c *Client) BusinessToken(ctx context.Context, token string, businessID int64) (string, error) {
	var out businessTokenResponse
	err := c.do(ctx, http.MethodPost, PathBusinessToken, authorization(c.bizScheme, token), businessTokenRequest{BusinessID: businessID}, &out)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &ResponseError{Endpoint: PathBusinessToken, Status: http.StatusOK, Malformed: true}
	}
	return out.Token, nil
}
