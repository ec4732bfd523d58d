package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"landlords/internal/apperr"
	"landlords/internal/logger"
	"landlords/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// respondError writes the JSON error envelope for err. Server-side failures are
// logged with their cause and reported with a generic message.
func respondError(c *gin.Context, err error) {
	ae := apperr.From(err)
	if ae.Status >= http.StatusInternalServerError {
		logger.Logger.WithError(err).WithFields(logrus.Fields{
			"path":    c.FullPath(),
			"user_id": middleware.GetUserID(c),
		}).Error("request failed")
	}
	body := gin.H{"success": false, "code": ae.Code, "message": ae.Message}
	if len(ae.Details) > 0 {
		body["errors"] = ae.Details
	}
	c.JSON(ae.Status, body)
}

// bindJSON decodes the request body and reports every binding problem at once.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			respondError(c, apperr.Validation(describe(verrs)))
			return false
		}
		respondError(c, apperr.New(http.StatusBadRequest, apperr.CodeInvalidPayload, "request body is not valid JSON", err))
		return false
	}
	return true
}

func describe(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out = append(out, field+" is required")
		case "email":
			out = append(out, field+" must be a valid email")
		case "min":
			out = append(out, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			out = append(out, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "oneof":
			out = append(out, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "gt":
			out = append(out, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "gte":
			out = append(out, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		default:
			out = append(out, field+" is invalid")
		}
	}
	return out
}

var registerOnce sync.Once

// UseJSONFieldNames makes validation errors name fields by their json tag.
func UseJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperr.Validation([]string{name + " must be a positive integer"}))
		return 0, false
	}
	return uint(id), true
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// toCents converts a major-unit amount such as 540.00 to minor units.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
