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
	ErrOccasionNotFound       = errors.New("occasion not found")
	ErrOccasionAlreadyMatched = errors.New("occasion is already matched")
	ErrOccasionNotMatched     = errors.New("occasion is not matched")
	ErrMemberNotFound         = errors.New("occasion member not found")
	ErrMemberConflict         = errors.New("user is already a member of this occasion")
	ErrMembershipChanged      = errors.New("occasion members changed during matching")
)

type OccasionRepository interface {
	// Create сохраняет повод и добавляет создателя первым участником в одной транзакции.
	Create(ctx context.Context, occasion *models.Occasion, creator models.OccasionMember) error
	GetByID(ctx context.Context, id string) (*models.Occasion, error)
	ListByMember(ctx context.Context, userID string) ([]*models.Occasion, error)
	Update(ctx context.Context, occasion *models.Occasion) error
	Delete(ctx context.Context, id string) error

	ListMembers(ctx context.Context, occasionID string) ([]models.OccasionMember, error)
	IsMember(ctx context.Context, occasionID, userID string) (bool, error)
	// AddMember fails with ErrOccasionAlreadyMatched once the occasion is matched.
	AddMember(ctx context.Context, exec SQLExecutor, member *models.OccasionMember) error
	RemoveMember(ctx context.Context, occasionID, userID string) error
}

type postgresOccasionRepository struct {
	db *sql.DB
}

func NewPostgresOccasionRepository(db *sql.DB) OccasionRepository {
	return &postgresOccasionRepository{db: db}
}

const occasionColumns = `
	id, name, budget, to_char(date, 'YYYY-MM-DD'), type, emoji, accent,
	created_by, creator_name, is_private, matched, matched_at, created_at`

func scanOccasion(row interface {
	Scan(dest ...interface{}) error
}, o *models.Occasion) error {
	return row.Scan(
		&o.ID,
		&o.Name,
		&o.Budget,
		&o.Date,
		&o.Type,
		&o.Emoji,
		&o.Accent,
		&o.CreatedBy,
		&o.CreatorName,
		&o.IsPrivate,
		&o.Matched,
		&o.MatchedAt,
		&o.CreatedAt,
	)
}

func (r *postgresOccasionRepository) Create(ctx context.Context, occasion *models.Occasion, creator models.OccasionMember) error {
	if occasion.ID == "" {
		occasion.ID = uuid.NewString()
	}

	return withTx(ctx, r.db, nil, func(tx SQLExecutor) error {
		query := `
			INSERT INTO occasions (id, name, budget, date, type, emoji, accent, created_by, creator_name, is_private)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at`

		err := tx.QueryRowContext(ctx, query,
			occasion.ID,
			occasion.Name,
			occasion.Budget,
			occasion.Date,
			occasion.Type,
			occasion.Emoji,
			occasion.Accent,
			occasion.CreatedBy,
			occasion.CreatorName,
			occasion.IsPrivate,
		).Scan(&occasion.CreatedAt)
		if err != nil {
			if _, ok := pqConstraint(err, pqForeignKeyViolation); ok {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to create occasion: %w", err)
		}

		creator.OccasionID = occasion.ID
		if err := insertMember(ctx, tx, &creator); err != nil {
			return err
		}
		occasion.Members = []models.OccasionMember{creator}
		return nil
	})
}

func (r *postgresOccasionRepository) GetByID(ctx context.Context, id string) (*models.Occasion, error) {
	occasion := &models.Occasion{}
	row := r.db.QueryRowContext(ctx, `SELECT `+occasionColumns+` FROM occasions WHERE id = $1`, id)
	if err := scanOccasion(row, occasion); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOccasionNotFound
		}
		return nil, fmt.Errorf("failed to get occasion: %w", err)
	}
	return occasion, nil
}

func (r *postgresOccasionRepository) ListByMember(ctx context.Context, userID string) ([]*models.Occasion, error) {
	query := `
		SELECT ` + occasionColumns + `
		FROM occasions
		WHERE id IN (SELECT occasion_id FROM occasion_members WHERE user_id = $1)
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list occasions: %w", err)
	}
	defer rows.Close()

	occasions := make([]*models.Occasion, 0)
	for rows.Next() {
		var o models.Occasion
		if err := scanOccasion(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan occasion: %w", err)
		}
		occasions = append(occasions, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return occasions, nil
}

func (r *postgresOccasionRepository) Update(ctx context.Context, occasion *models.Occasion) error {
	query := `
		UPDATE occasions
		SET name = $1, budget = $2, date = $3, type = $4, emoji = $5, is_private = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		occasion.Name,
		occasion.Budget,
		occasion.Date,
		occasion.Type,
		occasion.Emoji,
		occasion.IsPrivate,
		occasion.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update occasion: %w", err)
	}
	return checkAffectedRows(result, ErrOccasionNotFound)
}

func (r *postgresOccasionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM occasions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete occasion: %w", err)
	}
	return checkAffectedRows(result, ErrOccasionNotFound)
}

func (r *postgresOccasionRepository) ListMembers(ctx context.Context, occasionID string) ([]models.OccasionMember, error) {
	query := `
		SELECT occasion_id, user_id, name, email, joined_at
		FROM occasion_members
		WHERE occasion_id = $1
		ORDER BY joined_at, user_id`

	rows, err := r.db.QueryContext(ctx, query, occasionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list occasion members: %w", err)
	}
	defer rows.Close()

	members := make([]models.OccasionMember, 0)
	for rows.Next() {
		var m models.OccasionMember
		if err := rows.Scan(&m.OccasionID, &m.UserID, &m.Name, &m.Email, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan occasion member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *postgresOccasionRepository) IsMember(ctx context.Context, occasionID, userID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM occasion_members WHERE occasion_id = $1 AND user_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, occasionID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check occasion membership: %w", err)
	}
	return exists, nil
}

func (r *postgresOccasionRepository) AddMember(ctx context.Context, exec SQLExecutor, member *models.OccasionMember) error {
	return withTx(ctx, r.db, exec, func(tx SQLExecutor) error {
		// FOR SHARE ждёт параллельного сопоставления и видит его результат.
		if err := lockUnmatched(ctx, tx, member.OccasionID); err != nil {
			return err
		}
		return insertMember(ctx, tx, member)
	})
}

func (r *postgresOccasionRepository) RemoveMember(ctx context.Context, occasionID, userID string) error {
	return withTx(ctx, r.db, nil, func(tx SQLExecutor) error {
		if err := lockUnmatched(ctx, tx, occasionID); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx,
			`DELETE FROM occasion_members WHERE occasion_id = $1 AND user_id = $2`, occasionID, userID)
		if err != nil {
			return fmt.Errorf("failed to remove occasion member: %w", err)
		}
		return checkAffectedRows(result, ErrMemberNotFound)
	})
}

func lockUnmatched(ctx context.Context, tx SQLExecutor, occasionID string) error {
	var matched bool
	err := tx.QueryRowContext(ctx, `SELECT matched FROM occasions WHERE id = $1 FOR SHARE`, occasionID).Scan(&matched)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOccasionNotFound
		}
		return fmt.Errorf("failed to lock occasion: %w", err)
	}
	if matched {
		return ErrOccasionAlreadyMatched
	}
	return nil
}

func insertMember(ctx context.Context, exec SQLExecutor, member *models.OccasionMember) error {
	query := `
		INSERT INTO occasion_members (occasion_id, user_id, name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING joined_at`

	err := exec.QueryRowContext(ctx, query, member.OccasionID, member.UserID, member.Name, member.Email).Scan(&member.JoinedAt)
	if err != nil {
		if constraint, ok := pqConstraint(err, pqUniqueViolation); ok && constraint == "occasion_members_pkey" {
			return ErrMemberConflict
		}
		if constraint, ok := pqConstraint(err, pqForeignKeyViolation); ok {
			if constraint == "occasion_members_user_id_fkey" {
				return ErrUserNotFound
			}
			return ErrOccasionNotFound
		}
		return fmt.Errorf("failed to add occasion member: %w", err)
	}
	return nil
}
