// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rhpbdev/legacyprints/internal/apperr"
	"github.com/rhpbdev/legacyprints/internal/models"
)

// Validation limits for memorial input.
const (
	quantityStep = 25
	maxDateYears = 100
)

// fieldLabels are the user-facing names of memorial input fields.
var fieldLabels = map[string]string{
	"deceasedName":     "Deceased name",
	"deceasedPhotoUrl": "Photo URL",
	"quantity":         "Quantity",
	"themeId":          "Theme ID",
	"sunriseDate":      "Sunrise date",
	"sunsetDate":       "Sunset date",
	"serviceDate":      "Service date",
	"serviceTime":      "Service time",
	"serviceLocation":  "Service location",
	"serviceAddress":   "Service address",
}

// Validator checks request payloads against their struct tags. Date rules
// are evaluated against the injected clock.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// NewValidator creates a Validator. A nil now uses time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	val := &Validator{v: validator.New(), now: now}

	// Dates validate as time.Time so required and the date rules see them.
	val.v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(models.Date); ok {
			return d.Time
		}
		return nil
	}, models.Date{})

	val.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	val.v.RegisterValidation("mult25", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%quantityStep == 0
	})
	val.v.RegisterValidation("notafter", func(fl validator.FieldLevel) bool {
		days, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		limit := val.today().AddDate(0, 0, days)
		return !models.NewDate(t).After(limit)
	})
	val.v.RegisterValidation("notbefore100y", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		limit := val.today().AddDate(-maxDateYears, 0, 0)
		return !models.NewDate(t).Before(limit)
	})
	return val
}

func (val *Validator) today() time.Time {
	return models.NewDate(val.now()).Time
}

// Struct validates s and returns the first violation as an
// apperr.ValidationError with a human-readable message.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate %T: %w", s, err)
	}
	fe := verrs[0]
	return apperr.Validation(fe.Field(), message(fe))
}

// Var validates a single value against tag, labelling failures as field.
func (val *Validator) Var(field string, value any, tag string) error {
	err := val.v.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate %s: %w", field, err)
	}
	fe := verrs[0]
	return apperr.Validation(field, describe(label(field), fe.Tag(), fe.Param(), fe.Kind()))
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

func message(fe validator.FieldError) string {
	return describe(label(fe.Field()), fe.Tag(), fe.Param(), fe.Kind())
}

// describe renders one violated rule as a sentence.
func describe(name, tag, param string, kind reflect.Kind) string {
	switch tag {
	case "required":
		return name + " is required"
	case "gt":
		if param == "0" && kind != reflect.String {
			if name == fieldLabels["themeId"] {
				return "Theme ID is invalid"
			}
			return name + " must be greater than 0"
		}
		return fmt.Sprintf("%s must be greater than %s", name, param)
	case "min":
		if kind == reflect.String {
			return fmt.Sprintf("%s must contain at least %s characters", name, param)
		}
		return fmt.Sprintf("Minimum %s is %s", strings.ToLower(name), param)
	case "max":
		if kind == reflect.String {
			return fmt.Sprintf("%s must contain a maximum of %s characters", name, param)
		}
		return fmt.Sprintf("Maximum %s is %s", strings.ToLower(name), withThousands(param))
	case "mult25":
		return fmt.Sprintf("%s must be in increments of %d", name, quantityStep)
	case "notafter":
		return name + " cannot be in the future"
	case "notbefore100y":
		return fmt.Sprintf("%s cannot be more than %d years ago", name, maxDateYears)
	case "url":
		return name + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(param, " ", ", "))
	default:
		return name + " is invalid"
	}
}

// withThousands formats "10000" as "10,000".
func withThousands(n string) string {
	if len(n) <= 3 {
		return n
	}
	var b strings.Builder
	lead := len(n) % 3
	if lead > 0 {
		b.WriteString(n[:lead])
	}
	for i := lead; i < len(n); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(n[i : i+3])
	}
	return b.String()
}
