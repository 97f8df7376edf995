package middlewares

import (
	"reflect"

	"billweave-backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Money fields validate as float64 so gte/lte/gt work on them.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// BindAndValidate parses the request body into dst, trims and rounds it, and validates it.
// Item slices are checked through `dive` tags on the DTO.
// Returns a 400 fiber.Error for parse errors and validator.ValidationErrors for validation issues.
func BindAndValidate(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	utils.NormalizeDTO(dst)
	utils.NormalizePtrDTO(dst)
	return validate.Struct(dst)
}
