package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	itemDomain "github.com/jush-ua/Kumila-Rentals-sub000/internal/domain/item"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/domain"
)

// ItemModel is the GORM model for the items table.
type ItemModel struct {
	ID                int64     `gorm:"primaryKey;autoIncrement"`
	Name              string    `gorm:"type:varchar(200);not null"`
	Category          string    `gorm:"type:varchar(100);not null;default:'';index"`
	Size              string    `gorm:"type:varchar(50);not null;default:''"`
	DailyPriceCents   int64     `gorm:"not null;default:0"`
	WeeklyPriceCents  int64     `gorm:"not null;default:0"`
	MonthlyPriceCents int64     `gorm:"not null;default:0"`
	Description       string    `gorm:"type:text;not null;default:''"`
	Status            string    `gorm:"type:varchar(20);not null;default:'available';index"`
	Version           int64     `gorm:"not null;default:1"`
	CreatedAt         time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt         time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (ItemModel) TableName() string { return "items" }

// GormItemRepository implements the item Repository using GORM.
type GormItemRepository struct {
	db *gorm.DB
}

func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

func (r *GormItemRepository) FindByID(ctx context.Context, id int64) (*itemDomain.Item, error) {
	var model ItemModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Item", strconv.FormatInt(id, 10))
		}
		return nil, domain.NewStorageError("find item", err)
	}
	return toItemDomain(&model), nil
}

// ListAvailable returns rentable items, optionally filtered by category.
func (r *GormItemRepository) ListAvailable(ctx context.Context, category string, page, limit int) ([]*itemDomain.Item, int64, error) {
	query := r.db.WithContext(ctx).Model(&ItemModel{}).Where("status = ?", string(itemDomain.StatusAvailable))
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, domain.NewStorageError("count items", err)
	}

	var models []ItemModel
	if err := query.
		Order("name ASC").
		Order("id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, domain.NewStorageError("list items", err)
	}

	items := make([]*itemDomain.Item, len(models))
	for i := range models {
		items[i] = toItemDomain(&models[i])
	}
	return items, total, nil
}

func (r *GormItemRepository) Save(ctx context.Context, it *itemDomain.Item) (*itemDomain.Item, error) {
	model := toItemModel(it)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, domain.NewStorageError("save item", err)
	}
	return toItemDomain(model), nil
}

// Update persists item changes with optimistic locking on version.
func (r *GormItemRepository) Update(ctx context.Context, it *itemDomain.Item) error {
	model := toItemModel(it)
	previousVersion := it.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&ItemModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"name":                model.Name,
			"category":            model.Category,
			"size":                model.Size,
			"daily_price_cents":   model.DailyPriceCents,
			"weekly_price_cents":  model.WeeklyPriceCents,
			"monthly_price_cents": model.MonthlyPriceCents,
			"description":         model.Description,
			"status":              model.Status,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return domain.NewStorageError("update item", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("item was modified by another transaction")
	}
	return nil
}

// --- Conversions ---

func toItemModel(it *itemDomain.Item) *ItemModel {
	prices := it.Prices()
	return &ItemModel{
		ID:                it.ID(),
		Name:              it.Name(),
		Category:          it.Category(),
		Size:              it.Size(),
		DailyPriceCents:   prices.DailyCents,
		WeeklyPriceCents:  prices.WeeklyCents,
		MonthlyPriceCents: prices.MonthlyCents,
		Description:       it.Description(),
		Status:            string(it.Status()),
		Version:           it.Version(),
		CreatedAt:         it.CreatedAt(),
		UpdatedAt:         it.UpdatedAt(),
	}
}

func toItemDomain(m *ItemModel) *itemDomain.Item {
	return itemDomain.Reconstruct(
		m.ID,
		m.Name, m.Category, m.Size,
		itemDomain.PriceTiers{
			DailyCents:   m.DailyPriceCents,
			WeeklyCents:  m.WeeklyPriceCents,
			MonthlyCents: m.MonthlyPriceCents,
		},
		m.Description,
		itemDomain.Status(m.Status),
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
