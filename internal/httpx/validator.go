package httpx

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CategoryNameMaxLen is the longest category or subcategory name in runes.
const CategoryNameMaxLen = 25

// categoryNameRe: a capitalised word followed by up to two lowercase words.
var categoryNameRe = regexp.MustCompile(`^[A-ZА-ЯЁ][a-zа-яё]*(?: [a-zа-яё]+){0,2}$`)

// ValidCategoryName reports whether name follows the catalog naming rule.
func ValidCategoryName(name string) bool {
	return utf8.RuneCountInString(name) <= CategoryNameMaxLen && categoryNameRe.MatchString(name)
}

// Validator adapts go-playground/validator to echo.Validator. Failures come
// back as *common.ValidationError naming the JSON field.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = f.Tag.Get("param")
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("category_name", func(fl validator.FieldLevel) bool {
		return ValidCategoryName(fl.Field().String())
	})

	return &Validator{v: v}
}

// PathID returns the :id path parameter. Values that are not UUIDs are
// rejected before they reach a UUID column.
func PathID(c echo.Context) (string, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", &common.ValidationError{Field: "id", Values: []string{id}, Reason: "must be a UUID"}
	}
	return id, nil
}

func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	fe := verrs[0]
	ve := &common.ValidationError{Field: fe.Field(), Reason: reason(fe)}
	if s := fmt.Sprint(fe.Value()); s != "" && fe.Tag() != "required" {
		ve.Values = []string{s}
	}
	return ve
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be an email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "uuid":
		return "must be a UUID"
	case "category_name":
		return fmt.Sprintf("must be a capitalised name of up to three words and %d characters", CategoryNameMaxLen)
	default:
		return "failed " + fe.Tag()
	}
}
