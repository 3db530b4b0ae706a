package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/wishly/models"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePhotoKey(ctx context.Context, id string, photoKey *string) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, email, display_name, password_hash, photo_key, created_at`

func scanUser(row interface {
	Scan(dest ...interface{}) error
}, u *models.User) error {
	return row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.PhotoKey, &u.CreatedAt)
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
	).Scan(&user.CreatedAt)
	if err != nil {
		if constraint, ok := pqConstraint(err, pqUniqueViolation); ok && constraint == "users_email_key" {
			return ErrUserEmailConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *postgresUserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	if err := scanUser(r.db.QueryRowContext(ctx, query, args...), user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET email = $1, display_name = $2, password_hash = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, user.Email, user.DisplayName, user.PasswordHash, user.ID)
	if err != nil {
		if constraint, ok := pqConstraint(err, pqUniqueViolation); ok && constraint == "users_email_key" {
			return ErrUserEmailConflict
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdatePhotoKey(ctx context.Context, id string, photoKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET photo_key = $1 WHERE id = $2`, photoKey, id)
	if err != nil {
		return fmt.Errorf("failed to update user photo: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}
