package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jush-ua/Kumila-Rentals-sub000/internal/application"
	resDomain "github.com/jush-ua/Kumila-Rentals-sub000/internal/domain/reservation"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/response"
)

// AvailabilityDTO answers an availability query for one item.
type AvailabilityDTO struct {
	ItemID     int64  `json:"item_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Days       int    `json:"days"`
	Available  bool   `json:"available"`
	QuoteCents int64  `json:"quote_cents"`
}

// ItemHandler serves the public catalog and availability checks.
type ItemHandler struct {
	items        *application.ItemService
	reservations *application.ReservationService
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(items *application.ItemService, reservations *application.ReservationService) *ItemHandler {
	return &ItemHandler{items: items, reservations: reservations}
}

// RegisterRoutes registers the public catalog routes.
func (h *ItemHandler) RegisterRoutes(r *gin.RouterGroup) {
	items := r.Group("/api/v1/items")
	{
		items.GET("", h.ListItems)
		items.GET("/:id", h.GetItem)
		items.GET("/:id/availability", h.CheckAvailability)
	}
}

// ListItems handles GET /api/v1/items?category=.
func (h *ItemHandler) ListItems(c *gin.Context) {
	page, limit := parsePagination(c)
	result, err := h.items.ListItems(c.Request.Context(), c.Query("category"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetItem handles GET /api/v1/items/:id.
func (h *ItemHandler) GetItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid item ID")
		return
	}

	result, err := h.items.GetItem(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CheckAvailability handles GET /api/v1/items/:id/availability?start=&end=.
// The answer is advisory; only a successful create holds the dates.
func (h *ItemHandler) CheckAvailability(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid item ID")
		return
	}
	period, err := resDomain.ParsePeriod(c.Query("start"), c.Query("end"))
	if err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.items.GetItem(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	available, err := h.reservations.CheckAvailability(c.Request.Context(), id, period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, AvailabilityDTO{
		ItemID:     id,
		StartDate:  period.Start().Format(resDomain.DateLayout),
		EndDate:    period.End().Format(resDomain.DateLayout),
		Days:       period.Days(),
		Available:  available && item.Status == "available",
		QuoteCents: item.Prices.Quote(period.Days()),
	})
}
