package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
	"github.com/oksasatya/go-blog-api/internal/domain/repository"
)

const userColumns = `u.id, u.username, u.fullname, u.email, u.about, u.profile_picture, u.password_hash,
		u.permissions, u.deactivated, u.email_verified, u.version, u.created_at, u.updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, username, fullname, email, about, profile_picture, password_hash,
			permissions, deactivated, email_verified, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $12)
	`, u.ID, u.Username, u.Fullname, u.Email, u.About, u.ProfilePicture, u.PasswordHash,
		permissionStrings(u.Permissions), u.Deactivated, u.EmailVerified, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	for _, k := range u.APIKeys {
		if _, err := tx.Exec(ctx, `INSERT INTO api_keys (token, user_id, expires_at) VALUES ($1, $2, $3)`,
			k.Token, u.ID, k.ExpiresAt); err != nil {
			return fmt.Errorf("insert api key: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	u.Version = 1
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users u WHERE u.username = $1`, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = $1 ORDER BY u.created_at LIMIT 1`, email)
}

func (r *UserRepository) GetByAPIKey(ctx context.Context, token string, now time.Time) (*entity.User, error) {
	return r.getOne(ctx, `
		SELECT `+userColumns+`
		FROM users u
		JOIN api_keys k ON k.user_id = u.id
		WHERE k.token = $1 AND k.expires_at > $2
	`, token, now)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	keys, err := r.keys(ctx, []string{u.ID})
	if err != nil {
		return nil, err
	}
	u.APIKeys = keys[u.ID]
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return users, nil
	}
	keys, err := r.keys(ctx, lo.Map(users, func(u *entity.User, _ int) string { return u.ID }))
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.APIKeys = keys[u.ID]
	}
	return users, nil
}

func (r *UserRepository) keys(ctx context.Context, userIDs []string) (map[string][]entity.APIKey, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, token, expires_at FROM api_keys
		WHERE user_id = ANY($1)
		ORDER BY expires_at
	`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]entity.APIKey, len(userIDs))
	for rows.Next() {
		var (
			userID string
			k      entity.APIKey
		)
		if err := rows.Scan(&userID, &k.Token, &k.ExpiresAt); err != nil {
			return nil, err
		}
		out[userID] = append(out[userID], k)
	}
	return out, rows.Err()
}

// Update writes the profile fields when the stored version still matches u.Version.
// API keys are untouched; see AddAPIKey and ExpireAPIKey.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	var version int64
	err := r.db.QueryRow(ctx, `
		UPDATE users SET fullname = $2, email = $3, about = $4, profile_picture = $5, password_hash = $6,
			permissions = $7, deactivated = $8, email_verified = $9, updated_at = $10, version = version + 1
		WHERE id = $1 AND version = $11
		RETURNING version
	`, u.ID, u.Fullname, u.Email, u.About, u.ProfilePicture, u.PasswordHash,
		permissionStrings(u.Permissions), u.Deactivated, u.EmailVerified, u.UpdatedAt, u.Version).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.missingOrConflict(ctx, u.ID)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	u.Version = version
	return nil
}

func (r *UserRepository) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *UserRepository) AddAPIKey(ctx context.Context, userID string, key entity.APIKey) error {
	_, err := r.db.Exec(ctx, `INSERT INTO api_keys (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		key.Token, userID, key.ExpiresAt)
	if pgCode(err) == codeForeignKeyViolation {
		return repository.ErrNotFound
	}
	return err
}

func (r *UserRepository) ExpireAPIKey(ctx context.Context, token string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE api_keys SET expires_at = $2 WHERE token = $1`, token, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) MarkVerified(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET email_verified = TRUE, deactivated = FALSE, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND NOT email_verified
	`, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	// already verified, or missing
	if err := r.missingOrConflict(ctx, id); !errors.Is(err, repository.ErrConflict) {
		return false, err
	}
	return false, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u     entity.User
		perms []string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Fullname, &u.Email, &u.About, &u.ProfilePicture,
		&u.PasswordHash, &perms, &u.Deactivated, &u.EmailVerified, &u.Version, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Permissions = lo.Map(perms, func(p string, _ int) entity.Permission { return entity.Permission(p) })
	return &u, nil
}

func permissionStrings(perms []entity.Permission) []string {
	return lo.Map(perms, func(p entity.Permission, _ int) string { return string(p) })
}

var _ repository.UserRepository = (*UserRepository)(nil)
