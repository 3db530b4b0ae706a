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
	ErrItemNotFound           = errors.New("wishlist item not found")
	ErrItemAlreadyPurchased   = errors.New("wishlist item is already purchased")
	ErrItemNotPurchasedByUser = errors.New("wishlist item was not purchased by this user")
	ErrItemInvalidPriority    = errors.New("wishlist item priority out of range")
)

type WishlistRepository interface {
	Create(ctx context.Context, item *models.WishlistItem) error
	GetByID(ctx context.Context, id string) (*models.WishlistItem, error)
	ListByOwnerAndOccasion(ctx context.Context, userID, occasionID string) ([]*models.WishlistItem, error)
	ListByOccasion(ctx context.Context, occasionID string) ([]*models.WishlistItem, error)
	ListByOwner(ctx context.Context, userID string) ([]*models.WishlistItem, error)
	Update(ctx context.Context, item *models.WishlistItem) error
	UpdateImage(ctx context.Context, id string, imageKey, imageURL *string) error
	Delete(ctx context.Context, id string) error
	// MarkPurchased сработает только для ещё не купленного подарка.
	MarkPurchased(ctx context.Context, id, userID, userName string) (*models.WishlistItem, error)
	// UnmarkPurchased снимает отметку, только если её поставил userID.
	UnmarkPurchased(ctx context.Context, id, userID string) (*models.WishlistItem, error)
}

type postgresWishlistRepository struct {
	db *sql.DB
}

func NewPostgresWishlistRepository(db *sql.DB) WishlistRepository {
	return &postgresWishlistRepository{db: db}
}

const wishlistColumns = `
	id, user_id, occasion_id, product_name, product_url, product_image_key, product_image,
	price, asin, notes, emoji, priority, is_purchased, purchased_by, purchased_by_name,
	purchased_at, created_at`

func scanItem(row interface {
	Scan(dest ...interface{}) error
}, i *models.WishlistItem) error {
	return row.Scan(
		&i.ID,
		&i.UserID,
		&i.OccasionID,
		&i.ProductName,
		&i.ProductURL,
		&i.ProductImageKey,
		&i.ProductImage,
		&i.Price,
		&i.ASIN,
		&i.Notes,
		&i.Emoji,
		&i.Priority,
		&i.IsPurchased,
		&i.PurchasedBy,
		&i.PurchasedByName,
		&i.PurchasedAt,
		&i.CreatedAt,
	)
}

func mapItemWriteError(err error, op string) error {
	if _, ok := pqConstraint(err, pqCheckViolation); ok {
		return ErrItemInvalidPriority
	}
	if constraint, ok := pqConstraint(err, pqForeignKeyViolation); ok {
		if constraint == "wishlist_items_user_id_fkey" {
			return ErrUserNotFound
		}
		return ErrOccasionNotFound
	}
	return fmt.Errorf("failed to %s wishlist item: %w", op, err)
}

func (r *postgresWishlistRepository) Create(ctx context.Context, item *models.WishlistItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	query := `
		INSERT INTO wishlist_items
			(id, user_id, occasion_id, product_name, product_url, product_image_key, product_image,
			 price, asin, notes, emoji, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		item.ID,
		item.UserID,
		item.OccasionID,
		item.ProductName,
		item.ProductURL,
		item.ProductImageKey,
		item.ProductImage,
		item.Price,
		item.ASIN,
		item.Notes,
		item.Emoji,
		item.Priority,
	).Scan(&item.CreatedAt)
	if err != nil {
		return mapItemWriteError(err, "create")
	}
	return nil
}

func (r *postgresWishlistRepository) GetByID(ctx context.Context, id string) (*models.WishlistItem, error) {
	item := &models.WishlistItem{}
	row := r.db.QueryRowContext(ctx, `SELECT `+wishlistColumns+` FROM wishlist_items WHERE id = $1`, id)
	if err := scanItem(row, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get wishlist item: %w", err)
	}
	return item, nil
}

func (r *postgresWishlistRepository) ListByOwnerAndOccasion(ctx context.Context, userID, occasionID string) ([]*models.WishlistItem, error) {
	query := `
		SELECT ` + wishlistColumns + `
		FROM wishlist_items
		WHERE user_id = $1 AND occasion_id = $2
		ORDER BY priority, created_at`
	return r.list(ctx, query, userID, occasionID)
}

func (r *postgresWishlistRepository) ListByOccasion(ctx context.Context, occasionID string) ([]*models.WishlistItem, error) {
	query := `
		SELECT ` + wishlistColumns + `
		FROM wishlist_items
		WHERE occasion_id = $1
		ORDER BY user_id, priority, created_at`
	return r.list(ctx, query, occasionID)
}

func (r *postgresWishlistRepository) ListByOwner(ctx context.Context, userID string) ([]*models.WishlistItem, error) {
	query := `
		SELECT ` + wishlistColumns + `
		FROM wishlist_items
		WHERE user_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *postgresWishlistRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.WishlistItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.WishlistItem, 0)
	for rows.Next() {
		var item models.WishlistItem
		if err := scanItem(rows, &item); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *postgresWishlistRepository) Update(ctx context.Context, item *models.WishlistItem) error {
	query := `
		UPDATE wishlist_items
		SET product_name = $1, product_url = $2, price = $3, asin = $4, notes = $5, emoji = $6, priority = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		item.ProductName,
		item.ProductURL,
		item.Price,
		item.ASIN,
		item.Notes,
		item.Emoji,
		item.Priority,
		item.ID,
	)
	if err != nil {
		return mapItemWriteError(err, "update")
	}
	return checkAffectedRows(result, ErrItemNotFound)
}

func (r *postgresWishlistRepository) UpdateImage(ctx context.Context, id string, imageKey, imageURL *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE wishlist_items SET product_image_key = $1, product_image = $2 WHERE id = $3`,
		imageKey, imageURL, id)
	if err != nil {
		return fmt.Errorf("failed to update wishlist item image: %w", err)
	}
	return checkAffectedRows(result, ErrItemNotFound)
}

func (r *postgresWishlistRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete wishlist item: %w", err)
	}
	return checkAffectedRows(result, ErrItemNotFound)
}

func (r *postgresWishlistRepository) MarkPurchased(ctx context.Context, id, userID, userName string) (*models.WishlistItem, error) {
	query := `
		UPDATE wishlist_items
		SET is_purchased = TRUE, purchased_by = $1, purchased_by_name = $2, purchased_at = NOW()
		WHERE id = $3 AND is_purchased = FALSE
		RETURNING ` + wishlistColumns

	item := &models.WishlistItem{}
	err := scanItem(r.db.QueryRowContext(ctx, query, userID, userName, id), item)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to mark wishlist item purchased: %w", err)
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrItemAlreadyPurchased
}

func (r *postgresWishlistRepository) UnmarkPurchased(ctx context.Context, id, userID string) (*models.WishlistItem, error) {
	query := `
		UPDATE wishlist_items
		SET is_purchased = FALSE, purchased_by = NULL, purchased_by_name = NULL, purchased_at = NULL
		WHERE id = $1 AND is_purchased = TRUE AND purchased_by = $2
		RETURNING ` + wishlistColumns

	item := &models.WishlistItem{}
	err := scanItem(r.db.QueryRowContext(ctx, query, id, userID), item)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to unmark wishlist item: %w", err)
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrItemNotPurchasedByUser
}
