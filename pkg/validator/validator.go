package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"

	apperrors "github.com/Jawadyyy/healthmate-portal/pkg/errors"
)

// Validator provides validation functionality
type Validator interface {
	// Validate checks obj's validate tags and returns the first failing
	// field's message as a validation AppError.
	Validate(obj interface{}) error
	// Messages returns every failing message in field order.
	Messages(obj interface{}) []string
}

// TagNotBlank is "required" for strings that also rejects whitespace-only
// values. Its failures use the field's ".required" message.
const TagNotBlank = "notblank"

// Messages maps "<Struct>.<Field>.<tag>" to a user-facing message, e.g.
// "DoctorProfile.Phone.required". Unlisted failures use a generic message.
type Messages map[string]string

type validator struct {
	engine   *playground.Validate
	messages Messages
}

// Option configures a Validator.
type Option func(*validator)

// WithMessages adds entries to the message table.
func WithMessages(m Messages) Option {
	return func(v *validator) {
		for k, msg := range m {
			v.messages[k] = msg
		}
	}
}

func New(opts ...Option) Validator {
	engine := playground.New()
	engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// RegisterValidation only errors on empty or reserved tag names.
	_ = engine.RegisterValidation(TagNotBlank, notBlank)

	v := &validator{engine: engine, messages: Messages{}}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *validator) Validate(obj interface{}) error {
	msgs := v.Messages(obj)
	if len(msgs) == 0 {
		return nil
	}
	return apperrors.Validation(msgs[0])
}

func (v *validator) Messages(obj interface{}) []string {
	err := v.engine.Struct(obj)
	if err == nil {
		return nil
	}

	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, v.message(fe))
	}
	return out
}

func (v *validator) message(fe playground.FieldError) string {
	key := stripIndex(fe.StructNamespace()) + "." + tagName(fe)
	if msg, ok := v.messages[key]; ok {
		return msg
	}
	return defaultMessage(fe)
}

func tagName(fe playground.FieldError) string {
	if fe.Tag() == TagNotBlank {
		return "required"
	}
	return fe.Tag()
}

func notBlank(fl playground.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() == reflect.String {
		return strings.TrimSpace(f.String()) != ""
	}
	return !f.IsZero()
}

// stripIndex removes slice indexes so "X.Days[2]" matches "X.Days".
func stripIndex(ns string) string {
	if i := strings.IndexByte(ns, '['); i >= 0 {
		return ns[:i]
	}
	return ns
}

func defaultMessage(fe playground.FieldError) string {
	field := fe.Field()
	switch tagName(fe) {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please enter a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return fmt.Sprintf("%s does not match", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}
