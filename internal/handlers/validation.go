package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/storefront/order-service/internal/domain"
	sharedHTTP "github.com/storefront/order-service/pkg/http"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseBody decodes and validates the request body. On failure the error
// response has already been written and ok is false.
func parseBody(c *fiber.Ctx, out interface{}) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	if err := validate.Struct(out); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			details := make(map[string]interface{}, len(validationErrors))
			for _, fieldError := range validationErrors {
				details[fieldError.Namespace()] = describe(fieldError)
			}
			return false, sharedHTTP.BadRequestResponse(c, "Validation failed", details)
		}
		return false, sharedHTTP.BadRequestResponse(c, "Invalid request body", nil)
	}
	return true, nil
}

func describe(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldError.Field())
	case "gt", "gte", "min":
		return fmt.Sprintf("%s must be at least %s", fieldError.Field(), fieldError.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fieldError.Field(), fieldError.Param())
	}
	return fmt.Sprintf("%s is invalid", fieldError.Field())
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.BadRequest("invalid %s: %q", name, raw)
	}
	return id, nil
}

// pageRequest reads the paging query. sortOrder is the direction key; sortDir
// is accepted as an alias.
func pageRequest(c *fiber.Ctx) (domain.PageRequest, error) {
	sortOrder := c.Query("sortOrder")
	if sortOrder == "" {
		sortOrder = c.Query("sortDir")
	}
	return domain.ParsePageRequest(c.Query("pageNumber"), c.Query("pageSize"), c.Query("sortBy"), sortOrder)
}
