package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/campus-facility-reservation/internal/model"
	"github.com/iliyamo/campus-facility-reservation/internal/utils"
)

var userTable = Table[model.User]{
	Name:       "users",
	PrimaryKey: "user_id",
	Columns: []string{
		"user_id", "username", "email", "password_hash", "full_name", "role", "department",
		"profile_picture_url", "is_suspended", "created_at", "last_login_at",
	},
	Scan: func(s Scanner) (model.User, error) {
		var u model.User
		err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.Department,
			&u.ProfilePictureURL, &u.IsSuspended, &u.CreatedAt, &u.LastLoginAt)
		return u, err
	},
}

// UserRepo stores accounts.
type UserRepo struct {
	Base[model.User]
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{Base: NewBase(db, userTable)} }

// ErrUserExists is returned when the username or email is already taken.
var ErrUserExists = errors.New("username or email already exists")

// NewUser carries the fields accepted when creating an account.
type NewUser struct {
	Username   string
	Email      string
	Password   string
	FullName   string
	Role       string
	Department string
	AvatarURL  string
}

// CreateUser hashes the password and inserts the account.
func (r *UserRepo) CreateUser(ctx context.Context, in NewUser, cost int) (model.User, error) {
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return model.User{}, err
	}
	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	rec := goqu.Record{
		"username":      strings.TrimSpace(in.Username),
		"password_hash": hash,
		"full_name":     strings.TrimSpace(in.FullName),
		"role":          role,
	}
	if e := strings.ToLower(strings.TrimSpace(in.Email)); e != "" {
		rec["email"] = e
	}
	if in.Department != "" {
		rec["department"] = in.Department
	}
	if in.AvatarURL != "" {
		rec["profile_picture_url"] = in.AvatarURL
	}
	u, err := r.Create(ctx, rec)
	if IsDuplicate(err) {
		return model.User{}, ErrUserExists
	}
	return u, err
}

// FindByUsername looks a user up by login name.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (model.User, error) {
	return r.FindOneWhere(ctx, goqu.Ex{"username": strings.TrimSpace(username)})
}

// FindByEmail looks a user up by e-mail address.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.FindOneWhere(ctx, goqu.Ex{"email": strings.ToLower(strings.TrimSpace(email))})
}

// FindByLogin accepts either a username or an email address.
func (r *UserRepo) FindByLogin(ctx context.Context, login string) (model.User, error) {
	login = strings.TrimSpace(login)
	if strings.Contains(login, "@") {
		return r.FindByEmail(ctx, login)
	}
	return r.FindByUsername(ctx, login)
}

// ListByCreated returns every user, newest first.
func (r *UserRepo) ListByCreated(ctx context.Context) ([]model.User, error) {
	return r.FindWhere(ctx, nil, goqu.I("created_at").Desc())
}

// TouchLastLogin stamps last_login_at.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET last_login_at = ? WHERE user_id = ?", at.UTC(), id)
	return err
}

// UpdatePassword re-hashes and stores a new password.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE user_id = ?", hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdateUser applies rec and maps unique-key violations to ErrUserExists.
func (r *UserRepo) UpdateUser(ctx context.Context, id int64, rec goqu.Record) (model.User, error) {
	u, err := r.Update(ctx, id, rec)
	if IsDuplicate(err) {
		return model.User{}, ErrUserExists
	}
	return u, err
}

// CountByRole counts accounts with the given role.
func (r *UserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	return r.Count(ctx, goqu.Ex{"role": role})
}

// MySQL error numbers mapped by the API.
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// IsDuplicate reports a unique-key violation.
func IsDuplicate(err error) bool { return mysqlErrNumber(err) == mysqlDuplicateEntry }

// IsForeignKey reports a foreign-key violation in either direction.
func IsForeignKey(err error) bool {
	n := mysqlErrNumber(err)
	return n == mysqlRowIsReferenced || n == mysqlNoReferencedRow
}

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
