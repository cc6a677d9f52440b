package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Rating bounds for the max_rating setting.
const (
	MinRatingMax = 1
	MaxRatingMax = 10
)

// FieldConfig is the tagged-union configuration of a CustomField. Which
// members may be set is bound to the field type:
//
//	select:  Options (at least one unique, non-empty string)
//	rating:  MaxRating in [1,10]
//	text:    MaxLength, optional, at least 1
//	boolean: nothing (config serializes to {})
//
// Build values through the NewXxxConfig constructors or ParseFieldConfig;
// both enforce the invariants above.
type FieldConfig struct {
	Options   []string `json:"options,omitempty"`
	MaxRating int      `json:"max_rating,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
}

// NewSelectConfig builds a select config.
func NewSelectConfig(options []string) (FieldConfig, error) {
	cfg := FieldConfig{Options: options}
	return cfg, cfg.Validate(FieldTypeSelect)
}

// NewRatingConfig builds a rating config.
func NewRatingConfig(maxRating int) (FieldConfig, error) {
	cfg := FieldConfig{MaxRating: maxRating}
	return cfg, cfg.Validate(FieldTypeRating)
}

// NewTextConfig builds a text config. maxLength may be nil for unlimited.
func NewTextConfig(maxLength *int) (FieldConfig, error) {
	cfg := FieldConfig{MaxLength: maxLength}
	return cfg, cfg.Validate(FieldTypeText)
}

// NewBooleanConfig builds the empty boolean config.
func NewBooleanConfig() FieldConfig {
	return FieldConfig{}
}

// ParseFieldConfig decodes a raw JSON config for the given field type,
// rejecting keys that do not belong to that type.
func ParseFieldConfig(fieldType FieldType, raw json.RawMessage) (FieldConfig, error) {
	var keys map[string]json.RawMessage
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &keys); err != nil {
			return FieldConfig{}, fmt.Errorf("config must be a JSON object: %w", err)
		}
	}

	allowed := map[FieldType][]string{
		FieldTypeSelect:  {"options"},
		FieldTypeRating:  {"max_rating"},
		FieldTypeText:    {"max_length"},
		FieldTypeBoolean: {},
	}
	for key := range keys {
		ok := false
		for _, a := range allowed[fieldType] {
			if key == a {
				ok = true
				break
			}
		}
		if !ok {
			return FieldConfig{}, fmt.Errorf("config key %q is not valid for field type %q", key, fieldType)
		}
	}

	var cfg FieldConfig
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return FieldConfig{}, fmt.Errorf("decode config: %w", err)
		}
	}
	return cfg, cfg.Validate(fieldType)
}

// Validate checks the config invariants for the given field type.
func (c FieldConfig) Validate(fieldType FieldType) error {
	switch fieldType {
	case FieldTypeSelect:
		if len(c.Options) == 0 {
			return fmt.Errorf("select config requires at least one option")
		}
		seen := make(map[string]struct{}, len(c.Options))
		for _, opt := range c.Options {
			if strings.TrimSpace(opt) == "" {
				return fmt.Errorf("select options must be non-empty strings")
			}
			if _, dup := seen[opt]; dup {
				return fmt.Errorf("select option %q is duplicated", opt)
			}
			seen[opt] = struct{}{}
		}
		if c.MaxRating != 0 || c.MaxLength != nil {
			return fmt.Errorf("select config only accepts options")
		}
	case FieldTypeRating:
		if c.MaxRating < MinRatingMax || c.MaxRating > MaxRatingMax {
			return fmt.Errorf("max_rating must be between %d and %d", MinRatingMax, MaxRatingMax)
		}
		if c.Options != nil || c.MaxLength != nil {
			return fmt.Errorf("rating config only accepts max_rating")
		}
	case FieldTypeText:
		if c.MaxLength != nil && *c.MaxLength < 1 {
			return fmt.Errorf("max_length must be at least 1")
		}
		if c.Options != nil || c.MaxRating != 0 {
			return fmt.Errorf("text config only accepts max_length")
		}
	case FieldTypeBoolean:
		if c.Options != nil || c.MaxRating != 0 || c.MaxLength != nil {
			return fmt.Errorf("boolean config must be empty")
		}
	default:
		return fmt.Errorf("unknown field type %q", fieldType)
	}
	return nil
}

// HasOption reports whether opt is one of the select options.
func (c FieldConfig) HasOption(opt string) bool {
	for _, o := range c.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// CoerceValue converts a raw JSON value (as decoded into any) into the typed
// column for this field. A nil value clears the field. The error message is
// user-facing.
func (f *CustomField) CoerceValue(value any) (TypedValue, error) {
	if value == nil {
		return TypedValue{}, nil
	}

	switch f.FieldType {
	case FieldTypeRating:
		num, ok := value.(float64)
		if !ok {
			return TypedValue{}, fmt.Errorf("field %q expects a number", f.Name)
		}
		if num != math.Trunc(num) {
			return TypedValue{}, fmt.Errorf("field %q expects an integer rating", f.Name)
		}
		n := int(num)
		if n < 0 || n > f.Config.MaxRating {
			return TypedValue{}, fmt.Errorf("field %q rating must be between 0 and %d", f.Name, f.Config.MaxRating)
		}
		v := float64(n)
		return TypedValue{Numeric: &v}, nil

	case FieldTypeSelect:
		s, ok := value.(string)
		if !ok {
			return TypedValue{}, fmt.Errorf("field %q expects a string option", f.Name)
		}
		if !f.Config.HasOption(s) {
			return TypedValue{}, fmt.Errorf("field %q has no option %q", f.Name, s)
		}
		return TypedValue{Text: &s}, nil

	case FieldTypeText:
		s, ok := value.(string)
		if !ok {
			return TypedValue{}, fmt.Errorf("field %q expects a string", f.Name)
		}
		if f.Config.MaxLength != nil && utf8.RuneCountInString(s) > *f.Config.MaxLength {
			return TypedValue{}, fmt.Errorf("field %q exceeds max length %d", f.Name, *f.Config.MaxLength)
		}
		return TypedValue{Text: &s}, nil

	case FieldTypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return TypedValue{}, fmt.Errorf("field %q expects a boolean", f.Name)
		}
		return TypedValue{Boolean: &b}, nil

	default:
		return TypedValue{}, fmt.Errorf("unknown field type %q", f.FieldType)
	}
}
