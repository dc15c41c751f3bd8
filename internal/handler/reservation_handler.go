package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jush-ua/Kumila-Rentals-sub000/internal/application"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/auth"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/middleware"
	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/response"
)

// CancelRequest is the optional body of a cancel call.
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ReservationHandler handles HTTP requests for customer reservation operations.
type ReservationHandler struct {
	service *application.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(service *application.ReservationService) *ReservationHandler {
	RegisterValidators()
	return &ReservationHandler{service: service}
}

// RegisterRoutes registers all reservation routes on the given router group.
func (h *ReservationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	reservations := r.Group("/api/v1/reservations")
	reservations.Use(middleware.AuthMiddleware(jwtManager))
	{
		reservations.POST("", h.CreateReservation)
		reservations.GET("", middleware.RequireRole(auth.RoleCustomer), h.ListMyReservations)
		reservations.GET("/:id", h.GetReservation)
		reservations.POST("/:id/cancel", h.CancelReservation)
	}
}

// CreateReservation handles POST /api/v1/reservations.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	role, _ := middleware.GetUserRole(c)

	var req application.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	// Operators book for walk-in customers, not for themselves.
	customerID := &userID
	if role == auth.RoleOperator {
		customerID = nil
	}

	result, err := h.service.Reserve(c.Request.Context(), customerID, role == auth.RoleOperator, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListMyReservations handles GET /api/v1/reservations.
func (h *ReservationHandler) ListMyReservations(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.GetCustomerReservations(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetReservation handles GET /api/v1/reservations/:id.
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid reservation ID")
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	role, _ := middleware.GetUserRole(c)

	result, err := h.service.GetReservation(c.Request.Context(), id, userID, role == auth.RoleOperator)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelReservation handles POST /api/v1/reservations/:id/cancel.
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid reservation ID")
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	role, _ := middleware.GetUserRole(c)

	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	result, err := h.service.CancelReservation(c.Request.Context(), id, userID, role == auth.RoleOperator, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
