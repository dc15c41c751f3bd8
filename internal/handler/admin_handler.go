package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jush-ua/Kumila-Rentals-sub000/internal/application"
	resDomain "github.com/jush-ua/Kumila-Rentals-sub000/internal/domain/reservation"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/auth"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/middleware"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/response"
)

// UpdateStatusRequest is the body of an operator status change.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed rented completed cancelled rejected"`
	Reason string `json:"reason" binding:"max=500"`
}

// AdminHandler handles operator HTTP requests for reservations and the catalog.
type AdminHandler struct {
	reservations *application.ReservationService
	items        *application.ItemService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(reservations *application.ReservationService, items *application.ItemService) *AdminHandler {
	return &AdminHandler{reservations: reservations, items: items}
}

// RegisterRoutes registers operator routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleOperator))
	{
		admin.GET("/reservations", h.ListReservations)
		admin.PATCH("/reservations/:id/status", h.UpdateStatus)
		admin.GET("/stats/reservations", h.ReservationStats)

		admin.POST("/items", h.CreateItem)
		admin.PUT("/items/:id", h.UpdateItem)
		admin.DELETE("/items/:id", h.RetireItem)
	}
}

// ListReservations handles GET /api/v1/admin/reservations. Without a page
// parameter it returns every reservation ordered by start date; with one it
// returns a page ordered by creation time.
func (h *AdminHandler) ListReservations(c *gin.Context) {
	if _, paged := c.GetQuery("page"); !paged {
		all, err := h.reservations.ListReservations(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, all)
		return
	}

	page, limit := parsePagination(c)
	reservations, total, err := h.reservations.ListAllReservations(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, reservations, total, page, limit)
}

// UpdateStatus handles PATCH /api/v1/admin/reservations/:id/status.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid reservation ID")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.reservations.UpdateStatus(c.Request.Context(), id, resDomain.Status(req.Status), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ReservationStats handles GET /api/v1/admin/stats/reservations.
func (h *AdminHandler) ReservationStats(c *gin.Context) {
	stats, err := h.reservations.GetReservationStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// CreateItem handles POST /api/v1/admin/items.
func (h *AdminHandler) CreateItem(c *gin.Context) {
	var req application.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.items.CreateItem(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateItem handles PUT /api/v1/admin/items/:id.
func (h *AdminHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid item ID")
		return
	}

	var req application.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.items.UpdateItem(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RetireItem handles DELETE /api/v1/admin/items/:id. The row is kept so past
// reservations still resolve; the item just stops being rentable.
func (h *AdminHandler) RetireItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid item ID")
		return
	}

	if err := h.items.RetireItem(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": id, "status": "retired"})
}
