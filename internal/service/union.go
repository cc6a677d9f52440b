package service

import (
	"strings"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/db/models"

	"github.com/google/uuid"
)

// EffectiveField is one entry of a video's resolved field set. DisplayName
// equals the field name unless a cross-schema name conflict forced the
// schema-qualified form.
type EffectiveField struct {
	Field       models.CustomField `json:"field"`
	DisplayName string             `json:"display_name"`
	ShowOnCard  bool               `json:"show_on_card"`
	SchemaName  string             `json:"schema_name"`
}

// SchemaFieldSet groups one schema's ordered fields under its name for union
// resolution.
type SchemaFieldSet struct {
	SchemaName string
	Fields     []*models.SchemaFieldDetail
}

// ResolveFieldUnion merges the field sets a video's tags and workspace
// schema contribute into one stable list. Resolution is deterministic:
//
//   - The same field contributed twice keeps only its first occurrence.
//   - Two different fields with case-insensitively equal names and the same
//     type collapse to the first occurrence.
//   - Equal names with differing types are a conflict; every surviving
//     member is renamed to "<schema name>: <field name>".
//
// Output order is first-seen order across the input sets.
func ResolveFieldUnion(sets []SchemaFieldSet) []EffectiveField {
	var entries []EffectiveField
	seenField := make(map[uuid.UUID]struct{})

	for _, set := range sets {
		for _, detail := range set.Fields {
			if _, dup := seenField[detail.Field.ID]; dup {
				continue
			}
			seenField[detail.Field.ID] = struct{}{}
			entries = append(entries, EffectiveField{
				Field:       detail.Field,
				DisplayName: detail.Field.Name,
				ShowOnCard:  detail.ShowOnCard,
				SchemaName:  set.SchemaName,
			})
		}
	}

	type nameType struct {
		name      string
		fieldType models.FieldType
	}

	// First pass: collapse same-name same-type entries to the first one,
	// tracking which types each name maps to.
	seenNameType := make(map[nameType]struct{}, len(entries))
	typesByName := make(map[string]int, len(entries))
	kept := entries[:0]
	for _, entry := range entries {
		key := nameType{strings.ToLower(entry.Field.Name), entry.Field.FieldType}
		if _, dup := seenNameType[key]; dup {
			continue
		}
		seenNameType[key] = struct{}{}
		typesByName[key.name]++
		kept = append(kept, entry)
	}

	// Second pass: qualify the members of every name that still maps to
	// more than one type.
	for i := range kept {
		if typesByName[strings.ToLower(kept[i].Field.Name)] > 1 {
			kept[i].DisplayName = kept[i].SchemaName + ": " + kept[i].Field.Name
		}
	}

	return kept
}
