// Package validation checks admin input with go-playground/validator and
// renders failures as English messages keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"gamedash/internal/models"
)

// ErrInvalid is matched by every validation failure
var ErrInvalid = errors.New("invalid input")

const (
	notBlankTag  = "notblank"
	staffRoleTag = "staff_role"
)

// Error lists the invalid fields with their messages
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = e.Fields[k]
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error {
	return ErrInvalid
}

// Validator validates structs and single values
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a validator with English messages and the custom tags
func New() *Validator {
	validate := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(staffRoleTag, staffRoleValidation)

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, staffRoleTag} {
		_ = validate.RegisterTranslation(tag, translator, noop, translateCustom)
	}

	return &Validator{validate: validate, translator: translator}
}

// Struct validates s, returning *Error on failure
func (v *Validator) Struct(s any) error {
	return v.convert(v.validate.Struct(s))
}

// Var validates a single value against tag. field names it in the error.
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.validate.Var(value, tag)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[field] = field + fe.Translate(v.translator)
		}
		return &Error{Fields: fields}
	}
	return err
}

func (v *Validator) convert(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(v.translator)
	}
	return &Error{Fields: fields}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case staffRoleTag:
		return fe.Field() + " must be admin or teacher"
	default:
		return fe.Field() + " is invalid"
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

// staffRoleValidation accepts the roles a dashboard account may hold
func staffRoleValidation(fl validator.FieldLevel) bool {
	switch models.Role(fl.Field().String()) {
	case models.RoleAdmin, models.RoleTeacher:
		return true
	default:
		return false
	}
}

// StaffRole checks that role may be held by a dashboard account
func (v *Validator) StaffRole(role models.Role) error {
	return v.Var("role", string(role), staffRoleTag)
}
