package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func intPtr(i int) *int { return &i }

func TestParseFieldConfig(t *testing.T) {
	tests := []struct {
		name      string
		fieldType FieldType
		raw       string
		wantErr   string
	}{
		{
			name:      "valid select",
			fieldType: FieldTypeSelect,
			raw:       `{"options": ["Beginner", "Intermediate", "Advanced"]}`,
		},
		{
			name:      "select with no options",
			fieldType: FieldTypeSelect,
			raw:       `{"options": []}`,
			wantErr:   "at least one option",
		},
		{
			name:      "select with empty option",
			fieldType: FieldTypeSelect,
			raw:       `{"options": ["ok", "  "]}`,
			wantErr:   "non-empty",
		},
		{
			name:      "select with duplicate option",
			fieldType: FieldTypeSelect,
			raw:       `{"options": ["a", "a"]}`,
			wantErr:   "duplicated",
		},
		{
			name:      "valid rating",
			fieldType: FieldTypeRating,
			raw:       `{"max_rating": 5}`,
		},
		{
			name:      "rating too high",
			fieldType: FieldTypeRating,
			raw:       `{"max_rating": 11}`,
			wantErr:   "between 1 and 10",
		},
		{
			name:      "rating zero",
			fieldType: FieldTypeRating,
			raw:       `{"max_rating": 0}`,
			wantErr:   "between 1 and 10",
		},
		{
			name:      "valid text with max_length",
			fieldType: FieldTypeText,
			raw:       `{"max_length": 80}`,
		},
		{
			name:      "valid text without max_length",
			fieldType: FieldTypeText,
			raw:       `{}`,
		},
		{
			name:      "text max_length below one",
			fieldType: FieldTypeText,
			raw:       `{"max_length": 0}`,
			wantErr:   "at least 1",
		},
		{
			name:      "valid boolean empty object",
			fieldType: FieldTypeBoolean,
			raw:       `{}`,
		},
		{
			name:      "boolean with any key",
			fieldType: FieldTypeBoolean,
			raw:       `{"options": ["x"]}`,
			wantErr:   "not valid for field type",
		},
		{
			name:      "wrong key for type",
			fieldType: FieldTypeRating,
			raw:       `{"options": ["x"]}`,
			wantErr:   "not valid for field type",
		},
		{
			name:      "config not an object",
			fieldType: FieldTypeText,
			raw:       `[1, 2]`,
			wantErr:   "JSON object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFieldConfig(tt.fieldType, json.RawMessage(tt.raw))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ParseFieldConfig() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ParseFieldConfig() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseFieldConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCustomField_CoerceValue(t *testing.T) {
	ratingField := &CustomField{Name: "Rating", FieldType: FieldTypeRating, Config: FieldConfig{MaxRating: 5}}
	selectField := &CustomField{Name: "Level", FieldType: FieldTypeSelect, Config: FieldConfig{Options: []string{"Basic", "Pro"}}}
	textField := &CustomField{Name: "Notes", FieldType: FieldTypeText, Config: FieldConfig{MaxLength: intPtr(5)}}
	boolField := &CustomField{Name: "Tasty", FieldType: FieldTypeBoolean}

	tests := []struct {
		name    string
		field   *CustomField
		value   any
		want    TypedValue
		wantErr bool
	}{
		{
			name:  "rating in range",
			field: ratingField,
			value: float64(5),
			want:  TypedValue{Numeric: floatPtr(5)},
		},
		{
			name:  "rating zero allowed",
			field: ratingField,
			value: float64(0),
			want:  TypedValue{Numeric: floatPtr(0)},
		},
		{
			name:    "rating above max",
			field:   ratingField,
			value:   float64(6),
			wantErr: true,
		},
		{
			name:    "rating negative",
			field:   ratingField,
			value:   float64(-1),
			wantErr: true,
		},
		{
			name:    "rating non-integer",
			field:   ratingField,
			value:   4.5,
			wantErr: true,
		},
		{
			name:    "rating wrong type",
			field:   ratingField,
			value:   "5",
			wantErr: true,
		},
		{
			name:  "select valid option",
			field: selectField,
			value: "Pro",
			want:  TypedValue{Text: strPtr("Pro")},
		},
		{
			name:    "select unknown option",
			field:   selectField,
			value:   "Elite",
			wantErr: true,
		},
		{
			name:  "text within limit",
			field: textField,
			value: "hello",
			want:  TypedValue{Text: strPtr("hello")},
		},
		{
			name:    "text over limit",
			field:   textField,
			value:   "hello!",
			wantErr: true,
		},
		{
			name:  "boolean",
			field: boolField,
			value: true,
			want:  TypedValue{Boolean: boolPtr(true)},
		},
		{
			name:    "boolean wrong type",
			field:   boolField,
			value:   float64(1),
			wantErr: true,
		},
		{
			name:  "null clears any type",
			field: ratingField,
			value: nil,
			want:  TypedValue{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.field.CoerceValue(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatal("CoerceValue() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CoerceValue() unexpected error = %v", err)
			}
			if !typedValueEqual(got, tt.want) {
				t.Errorf("CoerceValue() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewCustomField_RejectsInvalidConfig(t *testing.T) {
	_, err := NewCustomField(uuid.New(), "Level", FieldTypeSelect, FieldConfig{})
	if err == nil {
		t.Fatal("NewCustomField() accepted a select field without options")
	}
}

func typedValueEqual(a, b TypedValue) bool {
	switch {
	case a.Text != nil && b.Text != nil:
		return *a.Text == *b.Text
	case a.Numeric != nil && b.Numeric != nil:
		return *a.Numeric == *b.Numeric
	case a.Boolean != nil && b.Boolean != nil:
		return *a.Boolean == *b.Boolean
	}
	return a.IsNull() && b.IsNull()
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }
