package handler

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	resDomain "github.com/jush-ua/Kumila-Rentals-sub000/internal/domain/reservation"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules used by request DTOs:
// enddate=Field requires a YYYY-MM-DD date on or after the named sibling field.
// It panics if a rule cannot be registered.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic("handler: gin binding engine is not go-playground/validator")
		}
		if err := v.RegisterValidation("enddate", validateEndDate); err != nil {
			panic(fmt.Sprintf("handler: register enddate validator: %v", err))
		}
	})
}

func validateEndDate(fl validator.FieldLevel) bool {
	startField, _, _, found := fl.GetStructFieldOKAdvanced2(fl.Parent(), fl.Param())
	if !found {
		return false
	}
	start, err := time.Parse(resDomain.DateLayout, startField.String())
	if err != nil {
		return true // the datetime rule reports the bad format
	}
	end, err := time.Parse(resDomain.DateLayout, fl.Field().String())
	if err != nil {
		return true
	}
	return !end.Before(start)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}

// parseID reads a positive int64 path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
