package item

import "context"

// Repository defines persistence operations for catalog items.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Item, error)
	ListAvailable(ctx context.Context, category string, page, limit int) ([]*Item, int64, error)
	// Save stores a new item and returns it with its assigned id.
	Save(ctx context.Context, item *Item) (*Item, error)
	Update(ctx context.Context, item *Item) error
}
