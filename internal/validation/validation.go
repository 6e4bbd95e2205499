// Package validation binds request input into DTOs and checks them with
// go-playground/validator struct tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var (
	ymdRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	hhmmRe     = regexp.MustCompile(`^\d{2}:\d{2}$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("ymd", matchString(ymdRe))
		_ = v.RegisterValidation("hhmm", matchString(hhmmRe))
		_ = v.RegisterValidation("username", matchString(usernameRe))
		instance = v
	})
	return instance
}

func matchString(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool { return re.MatchString(fl.Field().String()) }
}

// fieldName reports fields by the name the client sent.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "query", "param", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned when a DTO fails validation.
type Errors struct {
	Fields []FieldError
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "Validation Error: " + strings.Join(parts, ", ")
}

// Fieldf builds a single-field validation error for rules that cannot be
// expressed as struct tags.
func Fieldf(field, format string, args ...any) *Errors {
	return &Errors{Fields: []FieldError{{Field: field, Message: fmt.Sprintf(format, args...)}}}
}

// Struct validates v and converts validator errors into *Errors.
func Struct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Errors{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

// Bind reads path params, query and body into dst and validates it.
func Bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return Fieldf("body", "%v", he.Message)
		}
		return Fieldf("body", "invalid request body")
	}
	return Struct(dst)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must contain at least %s character(s)", fe.Param())
		}
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must contain at most %s character(s)", fe.Param())
		}
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "email":
		return "Invalid email"
	case "url":
		return "Invalid url"
	case "ymd":
		return "Invalid date format YYYY-MM-DD"
	case "hhmm":
		return "Invalid time format HH:MM"
	case "username":
		return "must contain only letters, numbers, and underscores"
	case "eqfield":
		return "Passwords do not match"
	case "required_if":
		return "Required"
	case "number":
		return "must be a whole number"
	}
	return "failed " + fe.Tag() + " validation"
}

// FlexInt accepts either a JSON number or a numeric string.
type FlexInt int64

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("expected number, got %s", string(b))
	}
	*n = FlexInt(v)
	return nil
}

// Int64 returns the plain value.
func (n FlexInt) Int64() int64 { return int64(n) }
