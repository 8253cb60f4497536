package validator

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"contactbook/internal/crud"

	"github.com/go-playground/validator/v10"
)

// payloadValidator validates raw payload maps against a request struct T.
// Unknown keys are stripped before validation, mirroring a parsing schema:
// the output payload contains only fields T declares. In partial mode only
// the fields present in the payload are validated, which gives updates
// their partial semantics.
type payloadValidator[T any] struct {
	v       *Validator
	partial bool
	fields  map[string]string // json name -> struct field name
}

// ForStruct builds a crud.Validator that checks payloads against T.
func ForStruct[T any](v *Validator) crud.Validator {
	return &payloadValidator[T]{v: v, fields: jsonFields[T]()}
}

// ForPartialStruct builds a crud.Validator with partial (update) semantics.
func ForPartialStruct[T any](v *Validator) crud.Validator {
	return &payloadValidator[T]{v: v, partial: true, fields: jsonFields[T]()}
}

func (p *payloadValidator[T]) Validate(ctx context.Context, payload crud.Payload) (crud.Payload, error) {
	filtered := make(crud.Payload, len(payload))
	for name := range p.fields {
		if v, ok := payload[name]; ok {
			filtered[name] = v
		}
	}

	target := new(T)
	if err := crud.Decode(filtered, target); err != nil {
		return nil, err
	}

	var err error
	if p.partial {
		provided := make([]string, 0, len(filtered))
		for name := range filtered {
			provided = append(provided, p.fields[name])
		}
		if len(provided) == 0 {
			return filtered, nil
		}
		err = p.v.validate.StructPartialCtx(ctx, target, provided...)
	} else {
		err = p.v.validate.StructCtx(ctx, target)
	}
	if err == nil {
		return filtered, nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil, fmt.Errorf("validate payload: %w", err)
	}
	out := &crud.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, crud.FieldError{
			Path:    fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return nil, out
}

// CheckStruct validates a typed value and reports failures in the same
// field-error shape the payload validators use.
func (v *Validator) CheckStruct(ctx context.Context, i any) error {
	err := v.validate.StructCtx(ctx, i)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate struct: %w", err)
	}
	out := &crud.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, crud.FieldError{
			Path:    fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "password_strength":
		return "must be at least 8 characters with upper case, lower case and a digit"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}

func jsonFields[T any]() map[string]string {
	t := reflect.TypeOf(*new(T))
	fields := make(map[string]string, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		fields[name] = f.Name
	}
	return fields
}
