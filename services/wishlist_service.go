package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/wishly/affiliate"
	"github.com/Dosada05/wishly/models"
	"github.com/Dosada05/wishly/realtime"
	"github.com/Dosada05/wishly/repositories"
	"github.com/Dosada05/wishly/storage"
)

type WishlistService interface {
	AddItem(ctx context.Context, occasionID, userID string, input ItemInput) (*models.WishlistItem, error)
	ListMyItems(ctx context.Context, occasionID, userID string) ([]*models.WishlistItem, error)
	ListAllMyItems(ctx context.Context, userID string) ([]*models.WishlistItem, error)
	ListMemberItems(ctx context.Context, occasionID, ownerID, viewerID string) ([]*models.WishlistItem, error)
	UpdateItem(ctx context.Context, itemID, userID string, input ItemInput) (*models.WishlistItem, error)
	DeleteItem(ctx context.Context, itemID, userID string) error
	UploadItemImage(ctx context.Context, itemID, userID string, file io.Reader, contentType string) (*models.WishlistItem, error)
	MarkPurchased(ctx context.Context, itemID, userID string) (*models.WishlistItem, error)
	UnmarkPurchased(ctx context.Context, itemID, userID string) (*models.WishlistItem, error)
}

type ItemInput struct {
	ProductURL   string  `json:"product_url"`
	ProductName  string  `json:"product_name,omitempty"`
	ProductImage *string `json:"product_image,omitempty"`
	Price        string  `json:"price,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	Emoji        string  `json:"emoji,omitempty"`
	Priority     int     `json:"priority,omitempty"`
}

type wishlistService struct {
	itemRepo     repositories.WishlistRepository
	occasionRepo repositories.OccasionRepository
	userRepo     repositories.UserRepository
	uploader     storage.FileUploader
	events       EventPublisher
	associateTag string
	logger       *slog.Logger
}

func NewWishlistService(
	itemRepo repositories.WishlistRepository,
	occasionRepo repositories.OccasionRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	events EventPublisher,
	associateTag string,
	logger *slog.Logger,
) WishlistService {
	return &wishlistService{
		itemRepo:     itemRepo,
		occasionRepo: occasionRepo,
		userRepo:     userRepo,
		uploader:     uploader,
		events:       publisherOrNop(events),
		associateTag: associateTag,
		logger:       logger,
	}
}

// applyInput переносит ввод в item, проставляя партнёрский тег и ASIN.
func (s *wishlistService) applyInput(item *models.WishlistItem, input ItemInput) error {
	rawURL := strings.TrimSpace(input.ProductURL)
	if rawURL == "" {
		return ErrItemURLRequired
	}

	info := affiliate.ExtractProductInfo(rawURL)
	name := strings.TrimSpace(input.ProductName)
	if name == "" {
		name = info.Name
	}
	if name == "" {
		return ErrItemNameRequired
	}

	priority := input.Priority
	if priority == 0 {
		priority = models.PriorityMedium
	}
	if priority < models.PriorityHigh || priority > models.PriorityLow {
		return ErrItemInvalidPriority
	}

	emoji := strings.TrimSpace(input.Emoji)
	if emoji == "" {
		emoji = models.DefaultItemEmoji
	}

	item.ProductURL = affiliate.AddTag(rawURL, s.associateTag)
	item.ProductName = name
	item.Price = strings.TrimSpace(input.Price)
	item.Notes = strings.TrimSpace(input.Notes)
	item.Emoji = emoji
	item.Priority = priority
	item.ASIN = nil
	if info.ASIN != "" {
		asin := info.ASIN
		item.ASIN = &asin
	}
	return nil
}

func (s *wishlistService) AddItem(ctx context.Context, occasionID, userID string, input ItemInput) (*models.WishlistItem, error) {
	if _, err := requireMember(ctx, s.occasionRepo, occasionID, userID); err != nil {
		return nil, err
	}

	item := &models.WishlistItem{
		UserID:       userID,
		OccasionID:   occasionID,
		ProductImage: emptyToNil(input.ProductImage),
	}
	if err := s.applyInput(item, input); err != nil {
		return nil, err
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, mapRepoError(err, "failed to create item")
	}

	s.events.PublishOccasionEvent(occasionID, realtime.EventItemAdded, item)
	return item, nil
}

func hidePurchases(items []*models.WishlistItem) []*models.WishlistItem {
	for _, item := range items {
		item.HidePurchase()
	}
	return items
}

func (s *wishlistService) ListMyItems(ctx context.Context, occasionID, userID string) ([]*models.WishlistItem, error) {
	if _, err := requireMember(ctx, s.occasionRepo, occasionID, userID); err != nil {
		return nil, err
	}
	items, err := s.itemRepo.ListByOwnerAndOccasion(ctx, userID, occasionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return hidePurchases(items), nil
}

func (s *wishlistService) ListAllMyItems(ctx context.Context, userID string) ([]*models.WishlistItem, error) {
	items, err := s.itemRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return hidePurchases(items), nil
}

func (s *wishlistService) ListMemberItems(ctx context.Context, occasionID, ownerID, viewerID string) ([]*models.WishlistItem, error) {
	if _, err := requireMember(ctx, s.occasionRepo, occasionID, viewerID); err != nil {
		return nil, err
	}
	items, err := s.itemRepo.ListByOwnerAndOccasion(ctx, ownerID, occasionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	if ownerID == viewerID {
		return hidePurchases(items), nil
	}
	return items, nil
}

func (s *wishlistService) getOwnedItem(ctx context.Context, itemID, userID string) (*models.WishlistItem, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get item")
	}
	if item.UserID != userID {
		return nil, ErrNotItemOwner
	}
	return item, nil
}

func (s *wishlistService) UpdateItem(ctx context.Context, itemID, userID string, input ItemInput) (*models.WishlistItem, error) {
	item, err := s.getOwnedItem(ctx, itemID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.applyInput(item, input); err != nil {
		return nil, err
	}
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, mapRepoError(err, "failed to update item")
	}

	s.events.PublishOccasionEvent(item.OccasionID, realtime.EventItemUpdated, newItemChange(item))
	item.HidePurchase()
	return item, nil
}

func (s *wishlistService) DeleteItem(ctx context.Context, itemID, userID string) error {
	item, err := s.getOwnedItem(ctx, itemID, userID)
	if err != nil {
		return err
	}
	if err := s.itemRepo.Delete(ctx, itemID); err != nil {
		return mapRepoError(err, "failed to delete item")
	}

	if key := derefString(item.ProductImageKey); key != "" && s.uploader != nil {
		if err := s.uploader.Delete(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "failed to delete item image", slog.String("key", key), slog.Any("error", err))
		}
	}

	s.events.PublishOccasionEvent(item.OccasionID, realtime.EventItemDeleted,
		map[string]string{"id": item.ID, "user_id": item.UserID})
	return nil
}

func (s *wishlistService) UploadItemImage(ctx context.Context, itemID, userID string, file io.Reader, contentType string) (*models.WishlistItem, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	item, err := s.getOwnedItem(ctx, itemID, userID)
	if err != nil {
		return nil, err
	}

	key, err := storage.NewObjectKey(storage.ItemPrefix, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			return nil, ErrInvalidFileType
		}
		return nil, err
	}

	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload item image: %w", err)
	}

	if err := s.itemRepo.UpdateImage(ctx, itemID, &key, &result.Location); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete orphaned item image", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, mapRepoError(err, "failed to save item image")
	}

	if old := derefString(item.ProductImageKey); old != "" && old != key {
		if err := s.uploader.Delete(ctx, old); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous item image", slog.String("key", old), slog.Any("error", err))
		}
	}

	item.ProductImageKey = &key
	item.ProductImage = &result.Location
	s.events.PublishOccasionEvent(item.OccasionID, realtime.EventItemUpdated, newItemChange(item))
	item.HidePurchase()
	return item, nil
}

func (s *wishlistService) MarkPurchased(ctx context.Context, itemID, userID string) (*models.WishlistItem, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get item")
	}
	if item.UserID == userID {
		return nil, ErrCannotPurchaseOwnItem
	}
	if _, err := requireMember(ctx, s.occasionRepo, item.OccasionID, userID); err != nil {
		return nil, err
	}
	buyer, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "failed to get user")
	}

	updated, err := s.itemRepo.MarkPurchased(ctx, itemID, userID, buyer.DisplayName)
	if err != nil {
		return nil, mapRepoError(err, "failed to mark item purchased")
	}

	s.events.PublishOccasionEvent(updated.OccasionID, realtime.EventItemPurchased, updated)
	return updated, nil
}

func (s *wishlistService) UnmarkPurchased(ctx context.Context, itemID, userID string) (*models.WishlistItem, error) {
	updated, err := s.itemRepo.UnmarkPurchased(ctx, itemID, userID)
	if err != nil {
		return nil, mapRepoError(err, "failed to unmark item")
	}
	s.events.PublishOccasionEvent(updated.OccasionID, realtime.EventItemUnpurchased, updated)
	return updated, nil
}

// itemChange is the ITEM_UPDATED payload. The owner shares the room, so
// purchase details are left out; they travel only in purchase events.
type itemChange struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	OccasionID   string    `json:"occasion_id"`
	ProductName  string    `json:"product_name"`
	ProductURL   string    `json:"product_url"`
	ProductImage *string   `json:"product_image,omitempty"`
	Price        string    `json:"price,omitempty"`
	ASIN         *string   `json:"asin,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Emoji        string    `json:"emoji"`
	Priority     int       `json:"priority"`
	CreatedAt    time.Time `json:"created_at"`
}

func newItemChange(item *models.WishlistItem) itemChange {
	return itemChange{
		ID:           item.ID,
		UserID:       item.UserID,
		OccasionID:   item.OccasionID,
		ProductName:  item.ProductName,
		ProductURL:   item.ProductURL,
		ProductImage: item.ProductImage,
		Price:        item.Price,
		ASIN:         item.ASIN,
		Notes:        item.Notes,
		Emoji:        item.Emoji,
		Priority:     item.Priority,
		CreatedAt:    item.CreatedAt,
	}
}
