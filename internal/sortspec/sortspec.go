// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package sortspec parses and validates textual sort specifications of the
// form "col", "col+", "col-", "col:asc", "col:desc". A specification lists
// one or more comma-separated tokens; token order is tie-break priority,
// with the first token as the primary sort key.
package sortspec

import (
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

var (
	// ErrEmptySpec indicates an empty sort token.
	ErrEmptySpec = errors.New("empty sort specification")

	// ErrInvalidOrder indicates an unrecognized order suffix after ':'.
	ErrInvalidOrder = errors.New("invalid sort order")

	// ErrColumnNotFound indicates a sort column absent from the file schema.
	ErrColumnNotFound = errors.New("column does not exist in the file")

	// ErrColumnNotSelected indicates a sort column excluded by --columns.
	ErrColumnNotSelected = errors.New("column must be included in --columns selection")
)

// Spec is one parsed sort key.
type Spec struct {
	Column    string
	Ascending bool
}

// Parse splits a comma-separated sort specification and parses each token.
// Repeated columns are kept as-is; later keys only break ties among earlier
// ones, so duplicates are harmless.
func Parse(raw string) ([]Spec, error) {
	tokens := strings.Split(raw, ",")
	specs := make([]Spec, 0, len(tokens))
	for _, token := range tokens {
		spec, err := ParseOne(token)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// ParseOne parses a single sort token. The trailing '+' and '-' shorthands
// are checked before the ':' form, so a token like "a:desc-" is the column
// "a:desc" sorted descending.
func ParseOne(token string) (Spec, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Spec{}, ErrEmptySpec
	}
	if col, ok := strings.CutSuffix(token, "+"); ok {
		return Spec{Column: col, Ascending: true}, nil
	}
	if col, ok := strings.CutSuffix(token, "-"); ok {
		return Spec{Column: col, Ascending: false}, nil
	}
	if col, order, ok := strings.Cut(token, ":"); ok {
		switch strings.ToLower(order) {
		case "asc", "ascending":
			return Spec{Column: col, Ascending: true}, nil
		case "desc", "descending":
			return Spec{Column: col, Ascending: false}, nil
		default:
			return Spec{}, fmt.Errorf("%w %q, use 'asc' or 'desc'", ErrInvalidOrder, order)
		}
	}
	return Spec{Column: token, Ascending: true}, nil
}

// Validate checks every sort column against the file schema and, when a
// column selection is in effect, against that selection. selected may be
// nil to mean "no projection requested". The first failing spec aborts.
func Validate(specs []Spec, selected []string, all []string) error {
	schemaCols := mapset.NewSet(all...)
	var selectedCols mapset.Set[string]
	if selected != nil {
		selectedCols = mapset.NewSet(selected...)
	}

	for _, spec := range specs {
		if !schemaCols.Contains(spec.Column) {
			return fmt.Errorf("sort column %q: %w", spec.Column, ErrColumnNotFound)
		}
		if selectedCols != nil && !selectedCols.Contains(spec.Column) {
			return fmt.Errorf("sort column %q: %w", spec.Column, ErrColumnNotSelected)
		}
	}
	return nil
}

// Columns returns the column names of the specs in order.
func Columns(specs []Spec) []string {
	cols := make([]string, len(specs))
	for i, spec := range specs {
		cols[i] = spec.Column
	}
	return cols
}
