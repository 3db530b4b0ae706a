package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/wishly/models"
)

var ErrAssignmentNotFound = errors.New("assignment not found")

// AssignmentRepository хранит результаты жеребьёвки Тайного Санты.
type AssignmentRepository interface {
	// SaveMatching atomically flips the occasion to matched and stores the pairs.
	// Givers must be exactly the current members of the occasion.
	SaveMatching(ctx context.Context, occasionID string, pairs []models.SecretSantaAssignment) (time.Time, error)
	GetReceiver(ctx context.Context, occasionID, giverID string) (*models.MyAssignment, error)
	Reset(ctx context.Context, occasionID string) error
}

type postgresAssignmentRepository struct {
	db *sql.DB
}

func NewPostgresAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &postgresAssignmentRepository{db: db}
}

func (r *postgresAssignmentRepository) SaveMatching(ctx context.Context, occasionID string, pairs []models.SecretSantaAssignment) (time.Time, error) {
	var matchedAt time.Time

	err := withTx(ctx, r.db, nil, func(tx SQLExecutor) error {
		err := tx.QueryRowContext(ctx,
			`UPDATE occasions SET matched = TRUE, matched_at = NOW() WHERE id = $1 AND matched = FALSE RETURNING matched_at`,
			occasionID,
		).Scan(&matchedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return occasionStateError(ctx, tx, occasionID, ErrOccasionAlreadyMatched)
			}
			return fmt.Errorf("failed to mark occasion matched: %w", err)
		}

		if err := verifyGivers(ctx, tx, occasionID, pairs); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM secret_santa_assignments WHERE occasion_id = $1`, occasionID); err != nil {
			return fmt.Errorf("failed to clear assignments: %w", err)
		}

		query, args := buildAssignmentInsert(occasionID, pairs)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to save assignments: %w", err)
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return matchedAt, nil
}

// occasionStateError distinguishes a missing occasion from one in the wrong state.
func occasionStateError(ctx context.Context, tx SQLExecutor, occasionID string, stateErr error) error {
	var exists bool
	err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM occasions WHERE id = $1)`, occasionID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check occasion: %w", err)
	}
	if !exists {
		return ErrOccasionNotFound
	}
	return stateErr
}

func verifyGivers(ctx context.Context, tx SQLExecutor, occasionID string, pairs []models.SecretSantaAssignment) error {
	rows, err := tx.QueryContext(ctx, `SELECT user_id FROM occasion_members WHERE occasion_id = $1`, occasionID)
	if err != nil {
		return fmt.Errorf("failed to load occasion members: %w", err)
	}
	defer rows.Close()

	members := make(map[string]struct{}, len(pairs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan occasion member: %w", err)
		}
		members[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(members) != len(pairs) {
		return ErrMembershipChanged
	}
	for _, p := range pairs {
		if _, ok := members[p.GiverID]; !ok {
			return ErrMembershipChanged
		}
	}
	return nil
}

func buildAssignmentInsert(occasionID string, pairs []models.SecretSantaAssignment) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO secret_santa_assignments (occasion_id, giver_id, receiver_id) VALUES `)

	args := make([]interface{}, 0, len(pairs)*2+1)
	args = append(args, occasionID)
	for i, p := range pairs {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($1, $%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, p.GiverID, p.ReceiverID)
	}
	return sb.String(), args
}

func (r *postgresAssignmentRepository) GetReceiver(ctx context.Context, occasionID, giverID string) (*models.MyAssignment, error) {
	query := `
		SELECT a.receiver_id, m.name
		FROM secret_santa_assignments a
		JOIN occasion_members m ON m.occasion_id = a.occasion_id AND m.user_id = a.receiver_id
		WHERE a.occasion_id = $1 AND a.giver_id = $2`

	assignment := &models.MyAssignment{OccasionID: occasionID}
	err := r.db.QueryRowContext(ctx, query, occasionID, giverID).Scan(&assignment.ReceiverID, &assignment.ReceiverName)
	if err == nil {
		return assignment, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	var matched bool
	err = r.db.QueryRowContext(ctx, `SELECT matched FROM occasions WHERE id = $1`, occasionID).Scan(&matched)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrOccasionNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to get occasion: %w", err)
	case !matched:
		return nil, ErrOccasionNotMatched
	}
	return nil, ErrAssignmentNotFound
}

func (r *postgresAssignmentRepository) Reset(ctx context.Context, occasionID string) error {
	return withTx(ctx, r.db, nil, func(tx SQLExecutor) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE occasions SET matched = FALSE, matched_at = NULL WHERE id = $1 AND matched = TRUE`, occasionID)
		if err != nil {
			return fmt.Errorf("failed to reset occasion match: %w", err)
		}
		if err := checkAffectedRows(result, ErrOccasionNotMatched); err != nil {
			if errors.Is(err, ErrOccasionNotMatched) {
				return occasionStateError(ctx, tx, occasionID, ErrOccasionNotMatched)
			}
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM secret_santa_assignments WHERE occasion_id = $1`, occasionID); err != nil {
			return fmt.Errorf("failed to delete assignments: %w", err)
		}
		return nil
	})
}
