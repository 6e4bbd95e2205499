package handler

import (
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/apperror"
	"github.com/iliyamo/campus-facility-reservation/internal/config"
	"github.com/iliyamo/campus-facility-reservation/internal/model"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
	"github.com/iliyamo/campus-facility-reservation/internal/response"
	"github.com/iliyamo/campus-facility-reservation/internal/storage"
	"github.com/iliyamo/campus-facility-reservation/internal/validation"
)

// UserHandler serves the caller's profile and admin account management.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Store storage.Storage
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, s storage.Storage) *UserHandler {
	if u == nil || s == nil {
		panic("nil dependency passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Users: u, Store: s}
}

var errUsernameTaken = apperror.Conflict("Username or email already in use")

type profileReq struct {
	FullName          *string `json:"full_name" validate:"omitempty,min=2"`
	Username          *string `json:"username" validate:"omitempty,username"`
	Email             *string `json:"email" validate:"omitempty,email"`
	Department        *string `json:"department"`
	Password          *string `json:"password" validate:"omitempty,min=6"`
	ProfilePictureURL *string `json:"profile_picture_url"`
}

func (p profileReq) record() goqu.Record {
	rec := goqu.Record{}
	if p.FullName != nil {
		rec["full_name"] = strings.TrimSpace(*p.FullName)
	}
	if p.Username != nil {
		rec["username"] = strings.TrimSpace(*p.Username)
	}
	if p.Email != nil {
		rec["email"] = strPtr(strings.ToLower(*p.Email))
	}
	if p.Department != nil {
		rec["department"] = strPtr(*p.Department)
	}
	if p.ProfilePictureURL != nil {
		rec["profile_picture_url"] = strPtr(*p.ProfilePictureURL)
	}
	return rec
}

// adminUserReq extends the profile fields with what only admins may set.
type adminUserReq struct {
	profileReq
	Role        *string `json:"role" validate:"omitempty,oneof=user admin admin_verificator"`
	IsSuspended *bool   `json:"is_suspended"`
}

type createUserReq struct {
	FullName   string `json:"full_name" validate:"required,min=2"`
	Username   string `json:"username" validate:"required,username"`
	Email      string `json:"email" validate:"omitempty,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Department string `json:"department"`
	AvatarURL  string `json:"profile_picture_url"`
}

// ----- profile -----

func (h *UserHandler) Profile(c echo.Context) error {
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

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req profileReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	u, err := h.apply(c, uid, req.record(), req.Password)
	if err != nil {
		return err
	}
	return response.OKMessage(c, u, "Profile updated successfully")
}

// UpdateAvatar stores the multipart "avatar" image and points the profile
// at it.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	url, err := saveUpload(c, h.Store, h.Cfg, "avatar", "avatars", imageExts)
	if err != nil {
		return err
	}
	u, err := h.apply(c, uid, goqu.Record{"profile_picture_url": url}, nil)
	if err != nil {
		return err
	}
	return response.OKMessage(c, u, "Avatar updated")
}

func (h *UserHandler) DeleteAvatar(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	u, err := h.apply(c, uid, goqu.Record{"profile_picture_url": nil}, nil)
	if err != nil {
		return err
	}
	return response.OKMessage(c, u, "Avatar removed")
}

// apply writes rec and an optional new password for user id.
func (h *UserHandler) apply(c echo.Context, id int64, rec goqu.Record, password *string) (model.User, error) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if password != nil && *password != "" {
		if err := h.Users.UpdatePassword(ctx, id, *password, h.Cfg.BcryptCost); err != nil {
			return model.User{}, notFound(err, "User not found")
		}
	}
	u, err := h.Users.UpdateUser(ctx, id, rec)
	if errors.Is(err, repository.ErrUserExists) {
		return model.User{}, errUsernameTaken
	}
	if err != nil {
		return model.User{}, notFound(err, "User not found")
	}
	return u, nil
}

// ----- admin -----

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Users.ListByCreated(ctx)
	if err != nil {
		return err
	}
	return response.OK(c, users)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "User not found")
	}
	return response.OK(c, u)
}

// Create adds a regular account. Admin roles are only granted through
// token registration or promotion.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.CreateUser(ctx, repository.NewUser{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		FullName:   req.FullName,
		Role:       model.RoleUser,
		Department: strings.TrimSpace(req.Department),
		AvatarURL:  strings.TrimSpace(req.AvatarURL),
	}, h.Cfg.BcryptCost)
	if errors.Is(err, repository.ErrUserExists) {
		return errUsernameTaken
	}
	if err != nil {
		return err
	}
	return response.Created(c, u, "User created")
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req adminUserReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	rec := req.record()
	if req.Role != nil {
		if err := h.guardSelf(c, id, *req.Role != model.RoleAdmin, "You cannot demote yourself"); err != nil {
			return err
		}
		rec["role"] = *req.Role
	}
	if req.IsSuspended != nil {
		if err := h.guardSelf(c, id, *req.IsSuspended, "You cannot suspend yourself"); err != nil {
			return err
		}
		if *req.IsSuspended {
			ctx, cancel := reqCtx(c)
			cur, err := h.Users.FindByID(ctx, id)
			cancel()
			if err != nil {
				return notFound(err, "User not found")
			}
			role := cur.Role
			if req.Role != nil {
				role = *req.Role
			}
			if model.IsAdmin(role) {
				return errSuspendAdmin
			}
		}
		rec["is_suspended"] = *req.IsSuspended
	}
	u, err := h.apply(c, id, rec, req.Password)
	if err != nil {
		return err
	}
	return response.OKMessage(c, u, "User updated")
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.guardSelf(c, id, true, "You cannot delete your own account"); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "User not found")
	}
	if _, err := h.Users.Delete(ctx, id); err != nil {
		return err
	}
	return response.OKMessage(c, u, "User deleted successfully")
}

func (h *UserHandler) Promote(c echo.Context) error {
	return h.setRole(c, model.RoleAdmin, "User promoted to admin")
}

func (h *UserHandler) Demote(c echo.Context) error {
	return h.setRole(c, model.RoleUser, "User demoted to user")
}

func (h *UserHandler) setRole(c echo.Context, role, msg string) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.guardSelf(c, id, role != model.RoleAdmin, "You cannot demote yourself"); err != nil {
		return err
	}
	u, err := h.apply(c, id, goqu.Record{"role": role}, nil)
	if err != nil {
		return err
	}
	return response.OKMessage(c, u, msg)
}

var errSuspendAdmin = apperror.BadRequest("Cannot suspend admin users")

// Suspend blocks logins for a non-admin account.
func (h *UserHandler) Suspend(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "User not found")
	}
	if model.IsAdmin(u.Role) {
		return errSuspendAdmin
	}
	u, err = h.apply(c, id, goqu.Record{"is_suspended": true}, nil)
	if err != nil {
		return err
	}
	return response.OKMessage(c, u, "User suspended successfully")
}

func (h *UserHandler) Unsuspend(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.apply(c, id, goqu.Record{"is_suspended": false}, nil)
	if err != nil {
		return err
	}
	return response.OKMessage(c, u, "User unsuspended successfully")
}

// guardSelf rejects the action with msg when the caller targets their own
// account and blocked is set.
func (h *UserHandler) guardSelf(c echo.Context, target int64, blocked bool, msg string) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	if blocked && uid == target {
		return apperror.BadRequest(msg)
	}
	return nil
}
