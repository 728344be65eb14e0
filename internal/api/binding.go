package api

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"attendtrack/internal/apperr"
	"attendtrack/internal/attendance"
)

func init() {
	// Report request fields by their wire names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.Split(f.Tag.Get(tag), ",")[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	}
}

// pageQuery is the page/limit pair accepted by every listing.
type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

func (q pageQuery) page(defaultSize int) attendance.Page {
	size := q.Limit
	if size == 0 {
		size = defaultSize
	}
	return attendance.NewPage(q.Page, size)
}

// bindError turns a gin binding failure into an InvalidArgument with a client message.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Wrap(apperr.InvalidArgument, fieldMessage(verrs[0]), err)
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return apperr.Wrap(apperr.InvalidArgument, "page and limit must be positive integers", err)
	}
	return apperr.Wrap(apperr.InvalidArgument, "Invalid request body", err)
}

func fieldMessage(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Valid email is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", fe.Field(), fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s cannot exceed %s%s", fe.Field(), fe.Param(), unit)
	}
	return fe.Field() + " is invalid"
}
