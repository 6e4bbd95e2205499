package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/apperror"
	"github.com/iliyamo/campus-facility-reservation/internal/config"
	"github.com/iliyamo/campus-facility-reservation/internal/model"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
	"github.com/iliyamo/campus-facility-reservation/internal/response"
	"github.com/iliyamo/campus-facility-reservation/internal/utils"
	"github.com/iliyamo/campus-facility-reservation/internal/validation"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Now    func() time.Time
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	if u == nil || t == nil {
		panic("nil repository passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Now: time.Now}
}

// ----- DTOs -----

type registerReq struct {
	Name            string `json:"name" validate:"required,min=2"`
	Username        string `json:"username" validate:"required,min=3,username"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,oneof=user admin admin_verificator"`
	AdminToken      string `json:"admin_token"`
	Department      string `json:"department"`
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type resetPasswordReq struct {
	Username    string `json:"username" validate:"required"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type authResp struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      model.User `json:"user"`
}

// Register creates an account and signs the user in. Admin roles require
// the current admin registration token.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if role != model.RoleUser {
		if strings.TrimSpace(req.AdminToken) == "" {
			return validation.Fieldf("admin_token", "Admin token is required for admin registration")
		}
		ok, err := h.Tokens.Validate(ctx, model.TokenAdminRegistration, strings.TrimSpace(req.AdminToken))
		if err != nil {
			return err
		}
		if !ok {
			return apperror.Forbidden("Invalid admin token")
		}
	}

	u, err := h.Users.CreateUser(ctx, repository.NewUser{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		FullName:   req.Name,
		Role:       role,
		Department: strings.TrimSpace(req.Department),
	}, h.Cfg.BcryptCost)
	if errors.Is(err, repository.ErrUserExists) {
		return apperror.Conflict("Username or email already exists")
	}
	if err != nil {
		return err
	}

	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.JWTTTL)
	if err != nil {
		return apperror.Internal(err)
	}
	return response.Created(c, authResp{Token: tok.Token, ExpiresAt: tok.Exp, User: u}, "Registration successful")
}

// Login verifies credentials and returns an access token. The username
// field also accepts an e-mail address.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.FindByLogin(ctx, req.Username)
	if err != nil {
		if isNotFoundErr(err) {
			return apperror.Unauthorized("Invalid username or password")
		}
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return apperror.Unauthorized("Invalid username or password")
	}
	if u.IsSuspended {
		return apperror.Forbidden("Your account has been suspended")
	}

	now := h.Now().UTC()
	if err := h.Users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return err
	}
	u.LastLoginAt = &now

	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.JWTTTL)
	if err != nil {
		return apperror.Internal(err)
	}
	return response.OKMessage(c, authResp{Token: tok.Token, ExpiresAt: tok.Exp, User: u}, "Login successful")
}

// ResetPassword sets a new password for username when token matches the
// current password reset token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ok, err := h.Tokens.Validate(ctx, model.TokenPasswordReset, strings.TrimSpace(req.Token))
	if err != nil {
		return err
	}
	if !ok {
		return apperror.BadRequest("Invalid reset token")
	}
	u, err := h.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		return notFound(err, "User not found")
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return err
	}
	return response.OKMessage(c, nil, "Password has been reset")
}

// Me returns the authenticated user's account.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.FindByID(ctx, uid)
	if err != nil {
		return notFound(err, "User not found")
	}
	return response.OK(c, u)
}
