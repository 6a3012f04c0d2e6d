package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// requestValidator plugs go-playground/validator into echo's c.Validate.
// Messages name fields by their JSON key, the way the web client sends them.
type requestValidator struct {
	v *validator.Validate
}

func NewValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{v: v}
}

func (rv *requestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	msgs := make([]string, 0, len(fields))
	for _, fe := range fields {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	if fe.Tag() == "email" {
		return fe.Field() + " must be a valid email address"
	}
	return fe.Field() + " is required"
}
