package handlers

import (
	"time"

	"github.com/unicauca/auth-service/internal/models"
)

const tokenTypeBearer = "Bearer"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token,omitempty"`
	TokenType       string    `json:"token_type"`
	AccountID       int64     `json:"account_id"`
	Roles           []string  `json:"roles"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

func loginFromModel(res *models.LoginResult) loginResponse {
	return loginResponse{
		AccessToken:     res.AccessToken,
		RefreshToken:    res.RefreshToken,
		TokenType:       tokenTypeBearer,
		AccountID:       res.AccountID,
		Roles:           models.RoleStrings(res.Roles),
		AccessExpiresAt: res.AccessExpiresAt,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken     string    `json:"access_token"`
	TokenType       string    `json:"token_type"`
	AccountID       int64     `json:"account_id"`
	Roles           []string  `json:"roles"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

func refreshFromModel(res *models.RefreshResult) refreshResponse {
	return refreshResponse{
		AccessToken:     res.AccessToken,
		TokenType:       tokenTypeBearer,
		AccountID:       res.AccountID,
		Roles:           models.RoleStrings(res.Roles),
		AccessExpiresAt: res.AccessExpiresAt,
	}
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type registerRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

type accountResponse struct {
	AccountID int64    `json:"account_id"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
}

type hasRoleResponse struct {
	HasRole bool `json:"has_role"`
}

type accountIDResponse struct {
	AccountID int64 `json:"account_id"`
}

type logoutAllRequest struct {
	AccountID int64 `json:"account_id"`
}

type meResponse struct {
	AccountID int64    `json:"account_id"`
	Roles     []string `json:"roles"`
}

type pingResponse struct {
	OK bool `json:"ok"`
}
