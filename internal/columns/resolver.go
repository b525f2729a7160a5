// Package columns locates semantic columns in a sheet header by declarative
// substring rules, allocating and labelling new columns when none match.
package columns

import (
	"context"
	"strings"

	"steam_sheet_enrich/internal/table"

	"github.com/rs/zerolog/log"
)

// FieldSpec declares one required column. Match holds groups of alternative
// substrings: a header cell matches when every group contributes at least one
// substring hit (case-insensitive). Label is written into the header when no
// existing cell matches.
type FieldSpec struct {
	Name  string
	Label string
	Match [][]string
}

// Resolve maps each field to a column index against the given header,
// reusing matching header cells and appending labelled columns for the rest.
// Fields are considered in declaration order; the first field to match a
// header cell claims it. Appending widens the header, so resolving twice
// against the now-widened header is idempotent.
func Resolve(ctx context.Context, store table.Store, header []string, fields []FieldSpec) (map[string]int, error) {
	resolved := make(map[string]int, len(fields))
	claimed := make(map[int]bool)

	for _, field := range fields {
		idx, ok := matchField(header, field, claimed)
		if !ok {
			continue
		}
		resolved[field.Name] = idx
		claimed[idx] = true
		log.Debug().
			Str("field", field.Name).
			Int("column", idx).
			Str("header", header[idx]).
			Msg("Matched existing column")
	}

	for _, field := range fields {
		if _, ok := resolved[field.Name]; ok {
			continue
		}
		idx, err := store.AppendColumnHeader(ctx, field.Label)
		if err != nil {
			return nil, err
		}
		resolved[field.Name] = idx
		log.Info().
			Str("field", field.Name).
			Str("label", field.Label).
			Int("column", idx).
			Msg("Allocated new column")
	}

	return resolved, nil
}

func matchField(header []string, field FieldSpec, claimed map[int]bool) (int, bool) {
	for idx, cell := range header {
		if claimed[idx] {
			continue
		}
		if matchCell(cell, field.Match) {
			return idx, true
		}
	}
	return 0, false
}

func matchCell(cell string, groups [][]string) bool {
	text := strings.ToLower(strings.TrimSpace(cell))
	if text == "" {
		return false
	}
	for _, group := range groups {
		if !anySubstring(text, group) {
			return false
		}
	}
	return len(groups) > 0
}

func anySubstring(text string, alternatives []string) bool {
	for _, alt := range alternatives {
		if strings.Contains(text, strings.ToLower(alt)) {
			return true
		}
	}
	return false
}
