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
	ErrInviteNotFound        = errors.New("invite not found")
	ErrInviteTokenConflict   = errors.New("invite token conflict")
	ErrInvitePendingExists   = errors.New("a pending invite already exists for this email")
	ErrInviteOccasionInvalid = errors.New("invite occasion conflict or invalid")
	ErrInviteNotPending      = errors.New("invite is no longer pending")
)

// InviteRepository определяет интерфейс для работы с приглашениями в поводы.
type InviteRepository interface {
	// Create заполняет ID и CreatedAt. Token и ExpiresAt задаёт сервис.
	Create(ctx context.Context, invite *models.OccasionInvite) error
	GetByID(ctx context.Context, id string) (*models.OccasionInvite, error)
	GetByToken(ctx context.Context, token string) (*models.OccasionInvite, error)
	ListPendingByEmail(ctx context.Context, email string) ([]*models.OccasionInvite, error)
	ListByOccasion(ctx context.Context, occasionID string) ([]*models.OccasionInvite, error)
	// UpdateStatus moves a pending invite to status; ErrInviteNotPending otherwise.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.InviteStatus) error
	// DeleteExpired удаляет просроченные ожидающие приглашения и возвращает их количество.
	DeleteExpired(ctx context.Context) (int64, error)
}

type postgresInviteRepository struct {
	db *sql.DB
}

func NewPostgresInviteRepository(db *sql.DB) InviteRepository {
	return &postgresInviteRepository{db: db}
}

const inviteColumns = `
	id, occasion_id, occasion_name, occasion_emoji, invited_by_user_id, invited_by_name,
	invited_user_email, invited_user_id, status, token, expires_at, created_at`

func scanInvite(row interface {
	Scan(dest ...interface{}) error
}, i *models.OccasionInvite) error {
	return row.Scan(
		&i.ID,
		&i.OccasionID,
		&i.OccasionName,
		&i.OccasionEmoji,
		&i.InvitedByUserID,
		&i.InvitedByName,
		&i.InvitedUserEmail,
		&i.InvitedUserID,
		&i.Status,
		&i.Token,
		&i.ExpiresAt,
		&i.CreatedAt,
	)
}

func (r *postgresInviteRepository) Create(ctx context.Context, invite *models.OccasionInvite) error {
	if invite.ID == "" {
		invite.ID = uuid.NewString()
	}
	if invite.Status == "" {
		invite.Status = models.InviteStatusPending
	}

	query := `
		INSERT INTO occasion_invites
			(id, occasion_id, occasion_name, occasion_emoji, invited_by_user_id, invited_by_name,
			 invited_user_email, invited_user_id, status, token, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		invite.ID,
		invite.OccasionID,
		invite.OccasionName,
		invite.OccasionEmoji,
		invite.InvitedByUserID,
		invite.InvitedByName,
		invite.InvitedUserEmail,
		invite.InvitedUserID,
		invite.Status,
		invite.Token,
		invite.ExpiresAt,
	).Scan(&invite.CreatedAt)

	if err != nil {
		if constraint, ok := pqConstraint(err, pqUniqueViolation); ok {
			switch constraint {
			case "occasion_invites_token_key":
				return ErrInviteTokenConflict
			case "occasion_invites_pending_key":
				return ErrInvitePendingExists
			}
		}
		if _, ok := pqConstraint(err, pqForeignKeyViolation); ok {
			return ErrInviteOccasionInvalid
		}
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

func (r *postgresInviteRepository) GetByID(ctx context.Context, id string) (*models.OccasionInvite, error) {
	return r.findOne(ctx, `SELECT `+inviteColumns+` FROM occasion_invites WHERE id = $1`, id)
}

func (r *postgresInviteRepository) GetByToken(ctx context.Context, token string) (*models.OccasionInvite, error) {
	return r.findOne(ctx, `SELECT `+inviteColumns+` FROM occasion_invites WHERE token = $1`, token)
}

func (r *postgresInviteRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.OccasionInvite, error) {
	invite := &models.OccasionInvite{}
	if err := scanInvite(r.db.QueryRowContext(ctx, query, args...), invite); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return invite, nil
}

func (r *postgresInviteRepository) ListPendingByEmail(ctx context.Context, email string) ([]*models.OccasionInvite, error) {
	query := `
		SELECT ` + inviteColumns + `
		FROM occasion_invites
		WHERE invited_user_email = $1 AND status = 'pending' AND expires_at > NOW()
		ORDER BY created_at DESC`
	return r.list(ctx, query, email)
}

func (r *postgresInviteRepository) ListByOccasion(ctx context.Context, occasionID string) ([]*models.OccasionInvite, error) {
	query := `
		SELECT ` + inviteColumns + `
		FROM occasion_invites
		WHERE occasion_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, occasionID)
}

func (r *postgresInviteRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.OccasionInvite, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	defer rows.Close()

	invites := make([]*models.OccasionInvite, 0)
	for rows.Next() {
		var invite models.OccasionInvite
		if err := scanInvite(rows, &invite); err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, &invite)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *postgresInviteRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.InviteStatus) error {
	result, err := executor(r.db, exec).ExecContext(ctx,
		`UPDATE occasion_invites SET status = $1 WHERE id = $2 AND status = 'pending'`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update invite status: %w", err)
	}
	return checkAffectedRows(result, ErrInviteNotPending)
}

func (r *postgresInviteRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM occasion_invites WHERE status = 'pending' AND expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invites: %w", err)
	}
	return result.RowsAffected()
}
