package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	StatusActive   = "ativo"
	StatusReturned = "devolvido"
)

// now is swapped in tests that need a fixed clock.
var now = time.Now

// ValidationError reports a field value that breaks one of the entity rules.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

var validate = newValidator()

// newValidator adds notblank, which rejects strings made only of spaces.
// Lengths use the built-in min/max/len tags, which count runes.
func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}
	return v
}

// fieldRule is a validator tag list for one field and the message shown for
// each tag that can fail.
type fieldRule struct {
	field    string
	tags     string
	messages map[string]string
}

func (r fieldRule) check(value string) error {
	err := validate.Var(value, r.tags)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := r.messages[verrs[0].Tag()]; ok {
			return invalid(r.field, msg)
		}
	}
	return fmt.Errorf("%s: %w", r.field, err)
}

// textRule builds the common shape: a blank message plus one message shared
// by the length tags.
func textRule(field, tags, blankMsg, lengthMsg string) fieldRule {
	return fieldRule{
		field: field,
		tags:  tags,
		messages: map[string]string{
			"notblank": blankMsg,
			"min":      lengthMsg,
			"max":      lengthMsg,
			"len":      lengthMsg,
		},
	}
}
