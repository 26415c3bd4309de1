// Package validation schema-checks participant and message payloads. All
// field violations are collected and returned together, never one at a time.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"presence-chat/internal/sanitize"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report violations under the wire field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Error carries the full ordered list of field violations for a payload.
type Error struct {
	Fields []string
}

func (e *Error) Error() string {
	return strings.Join(e.Fields, "; ")
}

// ParticipantPayload is the registration body.
type ParticipantPayload struct {
	Name string `json:"name" validate:"required,min=1"`
}

// Sanitized returns a markup-stripped, whitespace-trimmed copy.
func (p ParticipantPayload) Sanitized() ParticipantPayload {
	return ParticipantPayload{Name: sanitize.Strip(p.Name)}
}

// MessagePayload is the body for posting or editing a message.
type MessagePayload struct {
	To   string `json:"to" validate:"required,min=1"`
	Text string `json:"text" validate:"required,min=1"`
	Kind string `json:"type" validate:"required,oneof=message private_message"`
}

// Sanitized returns a copy with every free-text field normalized.
func (m MessagePayload) Sanitized() MessagePayload {
	return MessagePayload{
		To:   sanitize.Strip(m.To),
		Text: sanitize.Strip(m.Text),
		Kind: sanitize.Strip(m.Kind),
	}
}

// Check validates payload against its schema tags. On violation it returns a
// *Error listing every failing field.
func Check(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, describe(fe))
	}
	return &Error{Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("%s must not be empty", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
