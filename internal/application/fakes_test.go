package application

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/jush-ua/Kumila-Rentals-sub000/internal/cache"
	itemDomain "github.com/jush-ua/Kumila-Rentals-sub000/internal/domain/item"
	resDomain "github.com/jush-ua/Kumila-Rentals-sub000/internal/domain/reservation"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/domain"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/kafka"
)

// memReservationRepo is an in-memory Repository. Create holds the mutex across
// the check and the insert, mirroring the per-item lock of the SQL store.
type memReservationRepo struct {
	mu        sync.Mutex
	rows      map[int64]*resDomain.Reservation
	nextID    int64
	items     map[int64]bool // id -> rentable
	createErr func(ctx context.Context) error
}

func newMemReservationRepo(itemIDs ...int64) *memReservationRepo {
	items := map[int64]bool{}
	for _, id := range itemIDs {
		items[id] = true
	}
	return &memReservationRepo{rows: map[int64]*resDomain.Reservation{}, items: items}
}

func (m *memReservationRepo) Create(ctx context.Context, c *resDomain.Reservation) (*resDomain.Reservation, error) {
	if m.createErr != nil {
		if err := m.createErr(ctx); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rentable, ok := m.items[c.ItemID()]
	if !ok {
		return nil, domain.NewNotFoundError("Item", strconv.FormatInt(c.ItemID(), 10))
	}
	if !rentable {
		return nil, domain.NewValidationError("item is retired")
	}
	for _, r := range m.rows {
		if r.Conflicts(c) {
			return nil, domain.NewConflictError("item is not available")
		}
	}

	m.nextID++
	stored := resDomain.Reconstruct(m.nextID, c.ItemID(), c.Period(), c.Status(), c.CustomerID(),
		c.Contact(), c.Notes(), c.StatusNote(), c.Version(), c.CreatedAt(), c.UpdatedAt())
	m.rows[stored.ID()] = stored
	return copyReservation(stored), nil
}

func (m *memReservationRepo) HasActiveOverlap(_ context.Context, itemID int64, p resDomain.Period) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ItemID() == itemID && r.IsActive() && r.Period().Overlaps(p) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memReservationRepo) ListByStartDate(_ context.Context) ([]*resDomain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*resDomain.Reservation, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, copyReservation(r))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Period().Start(), out[j].Period().Start()
		if a.Equal(b) {
			return out[i].ID() < out[j].ID()
		}
		return a.Before(b)
	})
	return out, nil
}

func (m *memReservationRepo) FindByID(_ context.Context, id int64) (*resDomain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, domain.NewNotFoundError("Reservation", strconv.FormatInt(id, 10))
	}
	return copyReservation(r), nil
}

func (m *memReservationRepo) FindByCustomerID(_ context.Context, customerID uuid.UUID, page, limit int) ([]*resDomain.Reservation, int64, error) {
	m.mu.Lock()
	var mine []*resDomain.Reservation
	for _, r := range m.rows {
		if r.CustomerID() != nil && *r.CustomerID() == customerID {
			mine = append(mine, copyReservation(r))
		}
	}
	m.mu.Unlock()
	return paginate(mine, page, limit), int64(len(mine)), nil
}

func (m *memReservationRepo) ListAll(ctx context.Context, page, limit int) ([]*resDomain.Reservation, int64, error) {
	all, _ := m.ListByStartDate(ctx)
	return paginate(all, page, limit), int64(len(all)), nil
}

func (m *memReservationRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, r := range m.rows {
		counts[string(r.Status())]++
	}
	return counts, nil
}

func (m *memReservationRepo) Update(_ context.Context, r *resDomain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[r.ID()]
	if !ok {
		return domain.NewNotFoundError("Reservation", strconv.FormatInt(r.ID(), 10))
	}
	if cur.Version() != r.Version()-1 {
		return domain.NewConflictError("reservation was modified by another transaction")
	}
	m.rows[r.ID()] = copyReservation(r)
	return nil
}

func (m *memReservationRepo) activeCount(itemID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.ItemID() == itemID && r.IsActive() {
			n++
		}
	}
	return n
}

func copyReservation(r *resDomain.Reservation) *resDomain.Reservation {
	return resDomain.Reconstruct(r.ID(), r.ItemID(), r.Period(), r.Status(), r.CustomerID(),
		r.Contact(), r.Notes(), r.StatusNote(), r.Version(), r.CreatedAt(), r.UpdatedAt())
}

func paginate(rs []*resDomain.Reservation, page, limit int) []*resDomain.Reservation {
	from := (page - 1) * limit
	if from >= len(rs) {
		return nil
	}
	to := from + limit
	if to > len(rs) {
		to = len(rs)
	}
	return rs[from:to]
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, e kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// memItemRepo is an in-memory item Repository that counts reads.
type memItemRepo struct {
	mu     sync.Mutex
	items  map[int64]*itemDomain.Item
	nextID int64
	reads  int
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: map[int64]*itemDomain.Item{}}
}

func (m *memItemRepo) FindByID(_ context.Context, id int64) (*itemDomain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	it, ok := m.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("Item", strconv.FormatInt(id, 10))
	}
	return copyItem(it), nil
}

func (m *memItemRepo) ListAvailable(_ context.Context, category string, page, limit int) ([]*itemDomain.Item, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*itemDomain.Item
	for id := int64(1); id <= m.nextID; id++ {
		it, ok := m.items[id]
		if !ok || !it.IsRentable() || (category != "" && it.Category() != category) {
			continue
		}
		out = append(out, copyItem(it))
	}
	total := int64(len(out))
	from := (page - 1) * limit
	if from >= len(out) {
		return nil, total, nil
	}
	to := from + limit
	if to > len(out) {
		to = len(out)
	}
	return out[from:to], total, nil
}

func (m *memItemRepo) Save(_ context.Context, it *itemDomain.Item) (*itemDomain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	stored := itemDomain.Reconstruct(m.nextID, it.Name(), it.Category(), it.Size(), it.Prices(),
		it.Description(), it.Status(), it.Version(), it.CreatedAt(), it.UpdatedAt())
	m.items[stored.ID()] = stored
	return copyItem(stored), nil
}

func (m *memItemRepo) Update(_ context.Context, it *itemDomain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[it.ID()]
	if !ok {
		return domain.NewNotFoundError("Item", strconv.FormatInt(it.ID(), 10))
	}
	if cur.Version() != it.Version()-1 {
		return domain.NewConflictError("item was modified by another transaction")
	}
	m.items[it.ID()] = copyItem(it)
	return nil
}

func copyItem(it *itemDomain.Item) *itemDomain.Item {
	return itemDomain.Reconstruct(it.ID(), it.Name(), it.Category(), it.Size(), it.Prices(),
		it.Description(), it.Status(), it.Version(), it.CreatedAt(), it.UpdatedAt())
}

// memItemCache is an ItemCache backed by a map. getErr simulates an outage.
type memItemCache struct {
	mu      sync.Mutex
	entries map[int64]*itemDomain.Item
	getErr  error
}

func newMemItemCache() *memItemCache {
	return &memItemCache{entries: map[int64]*itemDomain.Item{}}
}

func (c *memItemCache) Get(_ context.Context, id int64) (*itemDomain.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	it, ok := c.entries[id]
	if !ok {
		return nil, cache.ErrMiss
	}
	return copyItem(it), nil
}

func (c *memItemCache) Set(_ context.Context, it *itemDomain.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[it.ID()] = copyItem(it)
	return nil
}

func (c *memItemCache) Delete(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

func (c *memItemCache) has(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}
