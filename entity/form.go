package entity

import (
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Mode distinguishes create forms from edit forms.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Message keys produced by local validation. They are passed through the
// translator before display.
const (
	MsgRequired         = "validation.required"
	MsgTooShort         = "validation.too_short"
	MsgPasswordTooShort = "validation.password_too_short"
	MsgNumber           = "validation.number"
)

// Rules returns the local validation rules for f in mode.
func (f Field) Rules(mode Mode) []validation.Rule {
	var rules []validation.Rule
	if f.Required && !(mode == ModeEdit && f.OmitEmptyOnEdit) {
		rules = append(rules, validation.Required.Error(MsgRequired))
	}
	if f.MinLength > 0 {
		msg := MsgTooShort
		if f.Kind == KindPassword {
			msg = MsgPasswordTooShort
		}
		rules = append(rules, validation.RuneLength(f.MinLength, 0).Error(msg))
	}
	return rules
}

// Validate checks fields against their rules and returns the offending
// fields mapped to a message key. Text is trimmed first, passwords are
// checked as typed. A nil map means
// the values are valid.
func Validate(fields []Field, values map[string]any, mode Mode) map[string]string {
	errs := validation.Errors{}
	for _, f := range fields {
		value := f.normalize(values[f.Name])

		if err := validation.Validate(value, f.Rules(mode)...); err != nil {
			errs[f.Name] = err
			continue
		}
		if s, ok := value.(string); ok && f.IsNumeric() && s != "" {
			if err := validation.Validate(s, is.Float.Error(MsgNumber)); err != nil {
				errs[f.Name] = err
			}
		}
	}

	if err := errs.Filter(); err == nil {
		return nil
	}
	out := make(map[string]string, len(errs))
	for name, err := range errs {
		out[name] = messageKey(err)
	}
	return out
}

// ValidateAll checks every descriptor field.
func (d Descriptor) ValidateAll(values map[string]any, mode Mode) map[string]string {
	return Validate(d.Fields, values, mode)
}

// ValidateStep checks the fields shown on step.
func (d Descriptor) ValidateStep(step int, values map[string]any, mode Mode) map[string]string {
	return Validate(d.StepFields(step), values, mode)
}

// BuildBody assembles the mutation body: every field, with the user's value
// or the field default. Number fields and the reference field are coerced
// from numeric strings.
// OmitEmptyOnEdit fields left empty are dropped from edit bodies.
func (d Descriptor) BuildBody(values map[string]any, mode Mode) map[string]any {
	body := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		value := f.normalize(values[f.Name])
		if isBlank(value) {
			if mode == ModeEdit && f.OmitEmptyOnEdit {
				continue
			}
			body[f.Name] = f.DefaultValue()
			continue
		}
		if f.IsNumeric() || d.isReferenceField(f.Name) {
			value = coerceNumber(value)
		}
		body[f.Name] = value
	}
	return body
}

func (d Descriptor) isReferenceField(name string) bool {
	return d.Reference != nil && d.Reference.Field == name
}

// FormValues extracts the editable values of record. OmitEmptyOnEdit fields
// start empty.
func (d Descriptor) FormValues(record Record) map[string]any {
	values := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		if f.OmitEmptyOnEdit {
			values[f.Name] = ""
			continue
		}
		v, ok := record.Fields[f.Name]
		if !ok || v == nil {
			values[f.Name] = f.DefaultValue()
			continue
		}
		values[f.Name] = v
	}
	return values
}

// InitialValues returns the create-form values: defaults for every field.
func (d Descriptor) InitialValues() map[string]any {
	values := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		if f.Default != nil {
			values[f.Name] = f.Default
			continue
		}
		values[f.Name] = ""
	}
	return values
}

// normalize trims text input. Passwords keep their surrounding spaces.
func (f Field) normalize(v any) any {
	if f.Kind == KindPassword {
		return v
	}
	return normalizeInput(v)
}

func normalizeInput(v any) any {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return v
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func coerceNumber(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func messageKey(err error) string {
	if e, ok := err.(validation.Error); ok {
		return e.Message()
	}
	return fmt.Sprint(err)
}
