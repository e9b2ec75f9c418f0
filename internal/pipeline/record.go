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

package pipeline

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// FieldNames returns the top-level field names of a schema in order.
func FieldNames(schema *arrow.Schema) []string {
	names := make([]string, schema.NumFields())
	for i := range schema.NumFields() {
		names[i] = schema.Field(i).Name
	}
	return names
}

// Project returns a new record containing only the named columns, in the
// order given. Column arrays are shared with the source record, not copied.
// The caller owns the returned record; the source record is left untouched.
func Project(rec arrow.RecordBatch, columns []string) (arrow.RecordBatch, error) {
	schema := rec.Schema()
	fields := make([]arrow.Field, 0, len(columns))
	cols := make([]arrow.Array, 0, len(columns))
	for _, name := range columns {
		indices := schema.FieldIndices(name)
		if len(indices) == 0 {
			return nil, fmt.Errorf("column %q not found in schema", name)
		}
		idx := indices[0]
		fields = append(fields, schema.Field(idx))
		cols = append(cols, rec.Column(idx))
	}
	projected := arrow.NewSchema(fields, nil)
	return array.NewRecordBatch(projected, cols, rec.NumRows()), nil
}

// Prefix returns the first n rows of a record as a zero-copy slice.
// If n covers the whole record, a retained reference to the record itself
// is returned. The caller owns the returned record.
func Prefix(rec arrow.RecordBatch, n int64) arrow.RecordBatch {
	if n >= rec.NumRows() {
		rec.Retain()
		return rec
	}
	if n < 0 {
		n = 0
	}
	return rec.NewSlice(0, n)
}

// TakeIndices materializes the rows at the given indices, in the order
// given, into a new record with the same schema. Works for any column
// type by concatenating single-row slices. The caller owns the result.
func TakeIndices(rec arrow.RecordBatch, indices []int) (arrow.RecordBatch, error) {
	if len(indices) == 0 {
		return rec.NewSlice(0, 0), nil
	}

	schema := rec.Schema()
	cols := make([]arrow.Array, schema.NumFields())
	defer func() {
		for _, col := range cols {
			if col != nil {
				col.Release()
			}
		}
	}()

	for j := range schema.NumFields() {
		src := rec.Column(j)
		parts := make([]arrow.Array, len(indices))
		for k, idx := range indices {
			if idx < 0 || int64(idx) >= rec.NumRows() {
				for _, p := range parts[:k] {
					p.Release()
				}
				return nil, fmt.Errorf("row index %d out of range [0,%d)", idx, rec.NumRows())
			}
			parts[k] = array.NewSlice(src, int64(idx), int64(idx)+1)
		}
		merged, err := array.Concatenate(parts, memory.DefaultAllocator)
		for _, p := range parts {
			p.Release()
		}
		if err != nil {
			return nil, fmt.Errorf("concatenate column %q: %w", schema.Field(j).Name, err)
		}
		cols[j] = merged
	}

	return array.NewRecordBatch(schema, cols, int64(len(indices))), nil
}
