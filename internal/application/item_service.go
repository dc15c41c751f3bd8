package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jush-ua/Kumila-Rentals-sub000/internal/cache"
	itemDomain "github.com/jush-ua/Kumila-Rentals-sub000/internal/domain/item"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/domain"
)

// ItemCache is the read-through cache used for catalog reads.
// *cache.ItemCache satisfies it.
type ItemCache interface {
	Get(ctx context.Context, id int64) (*itemDomain.Item, error)
	Set(ctx context.Context, item *itemDomain.Item) error
	Delete(ctx context.Context, id int64) error
}

// CreateItemRequest is the request DTO for adding an item to the catalog.
type CreateItemRequest struct {
	Name         string `json:"name" binding:"required,max=200"`
	Category     string `json:"category" binding:"max=100"`
	Size         string `json:"size" binding:"max=50"`
	DailyCents   int64  `json:"daily_cents" binding:"required,gt=0"`
	WeeklyCents  int64  `json:"weekly_cents" binding:"gte=0"`
	MonthlyCents int64  `json:"monthly_cents" binding:"gte=0"`
	Description  string `json:"description"`
}

// UpdateItemRequest is the request DTO for editing an item. Empty fields keep
// their current value; prices are replaced only when daily_cents is set.
type UpdateItemRequest struct {
	Name         string `json:"name" binding:"max=200"`
	Category     string `json:"category" binding:"max=100"`
	Size         string `json:"size" binding:"max=50"`
	DailyCents   int64  `json:"daily_cents" binding:"gte=0"`
	WeeklyCents  int64  `json:"weekly_cents" binding:"gte=0"`
	MonthlyCents int64  `json:"monthly_cents" binding:"gte=0"`
	Description  string `json:"description"`
}

// ItemDTO is the API response representation of a catalog item.
type ItemDTO struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	Category    string                `json:"category"`
	Size        string                `json:"size,omitempty"`
	Prices      itemDomain.PriceTiers `json:"prices"`
	Description string                `json:"description,omitempty"`
	Status      string                `json:"status"`
	Version     int64                 `json:"version"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ItemService handles the item catalog. Reads go through the cache when one is
// configured; cache failures fall back to the database.
type ItemService struct {
	repo   itemDomain.Repository
	cache  ItemCache
	logger *zap.Logger
}

// NewItemService creates a new ItemService. itemCache may be nil.
func NewItemService(repo itemDomain.Repository, itemCache ItemCache, logger *zap.Logger) *ItemService {
	return &ItemService{repo: repo, cache: itemCache, logger: logger}
}

// GetItem returns an item by id, serving from the cache when possible.
func (s *ItemService) GetItem(ctx context.Context, id int64) (*ItemDTO, error) {
	it, err := s.findItem(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toItemDTO(it)
	return &result, nil
}

// ListItems returns rentable items, optionally filtered by category.
func (s *ItemService) ListItems(ctx context.Context, category string, page, limit int) (*domain.PaginatedResult[ItemDTO], error) {
	items, total, err := s.repo.ListAvailable(ctx, category, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toItemDTO(it)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// CreateItem adds an item to the catalog (operator).
func (s *ItemService) CreateItem(ctx context.Context, req CreateItemRequest) (*ItemDTO, error) {
	it, err := itemDomain.NewItem(req.Name, req.Category, req.Size, itemDomain.PriceTiers{
		DailyCents:   req.DailyCents,
		WeeklyCents:  req.WeeklyCents,
		MonthlyCents: req.MonthlyCents,
	}, req.Description)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, it)
	if err != nil {
		return nil, err
	}

	s.logger.Info("item created", zap.Int64("item_id", saved.ID()), zap.String("name", saved.Name()))
	result := toItemDTO(saved)
	return &result, nil
}

// UpdateItem edits an item's metadata (operator).
func (s *ItemService) UpdateItem(ctx context.Context, id int64, req UpdateItemRequest) (*ItemDTO, error) {
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var prices *itemDomain.PriceTiers
	if req.DailyCents > 0 {
		prices = &itemDomain.PriceTiers{
			DailyCents:   req.DailyCents,
			WeeklyCents:  req.WeeklyCents,
			MonthlyCents: req.MonthlyCents,
		}
	}
	if err := it.Update(req.Name, req.Category, req.Size, prices, req.Description); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, it); err != nil {
		return nil, err
	}
	s.evict(ctx, id)

	result := toItemDTO(it)
	return &result, nil
}

// RetireItem removes an item from the rentable catalog (operator). Existing
// reservations are kept; new ones are refused.
func (s *ItemService) RetireItem(ctx context.Context, id int64) error {
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := it.Retire(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, it); err != nil {
		return err
	}
	s.evict(ctx, id)

	s.logger.Info("item retired", zap.Int64("item_id", id))
	return nil
}

// --- Helpers ---

func (s *ItemService) findItem(ctx context.Context, id int64) (*itemDomain.Item, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("item cache read failed", zap.Int64("item_id", id), zap.Error(err))
		}
	}

	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, it); err != nil {
			s.logger.Warn("item cache write failed", zap.Int64("item_id", id), zap.Error(err))
		}
	}
	return it, nil
}

func (s *ItemService) evict(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("item cache evict failed", zap.Int64("item_id", id), zap.Error(err))
	}
}

func toItemDTO(it *itemDomain.Item) ItemDTO {
	return ItemDTO{
		ID:          it.ID(),
		Name:        it.Name(),
		Category:    it.Category(),
		Size:        it.Size(),
		Prices:      it.Prices(),
		Description: it.Description(),
		Status:      string(it.Status()),
		Version:     it.Version(),
		CreatedAt:   it.CreatedAt(),
		UpdatedAt:   it.UpdatedAt(),
	}
}
