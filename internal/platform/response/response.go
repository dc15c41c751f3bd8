// Package response writes the JSON envelopes returned by every HTTP endpoint.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jush-ua/Kumila-Rentals-sub000/internal/platform/domain"
)

// Envelope is the common response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorBody describes a failed request. Code is stable and safe to branch on.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries pagination details.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes 200 with a page of items and its metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &Meta{Total: total, Page: page, Limit: limit, TotalPages: totalPages},
	})
}

// BadRequest writes 400 with msg.
func BadRequest(c *gin.Context, msg string) {
	fail(c, http.StatusBadRequest, string(domain.KindValidation), msg)
}

// Unauthorized writes 401.
func Unauthorized(c *gin.Context) {
	fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
}

// Error maps a domain error to its HTTP status. Storage failures are reported
// as retryable; unknown errors never leak their message.
func Error(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindValidation:
		fail(c, http.StatusBadRequest, string(kind), err.Error())
	case domain.KindNotFound:
		fail(c, http.StatusNotFound, string(kind), err.Error())
	case domain.KindConflict:
		fail(c, http.StatusConflict, string(kind), err.Error())
	case domain.KindInvalidState:
		fail(c, http.StatusUnprocessableEntity, string(kind), err.Error())
	case domain.KindForbidden:
		fail(c, http.StatusForbidden, string(kind), err.Error())
	case domain.KindStorage:
		c.Header("Retry-After", "1")
		fail(c, http.StatusServiceUnavailable, string(kind), "the service is temporarily unavailable, please try again")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: msg},
	})
}
