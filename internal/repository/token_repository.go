package repository

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
)

// TokenRepo reads the shared system tokens (admin registration
// and password reset) kept in the system_tokens table.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Get returns the current value of key or ErrNotFound.
func (r *TokenRepo) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := r.DB.QueryRowContext(ctx,
		"SELECT `value` FROM system_tokens WHERE `key` = ? LIMIT 1", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

// Validate reports whether candidate equals the stored value of key. A
// missing key never validates.
func (r *TokenRepo) Validate(ctx context.Context, key, candidate string) (bool, error) {
	v, err := r.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return candidate != "" && subtle.ConstantTimeCompare([]byte(v), []byte(candidate)) == 1, nil
}

// List returns the tokens named in keys as a key→value map.
func (r *TokenRepo) List(ctx context.Context, keys ...string) (map[string]string, error) {
	q, args, err := dialect.From("system_tokens").
		Select("key", "value").
		Where(goquIn("key", keys)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
