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

// Package enginetest provides an in-memory Engine used as the reference
// implementation in tests. It mirrors the DuckDB engine contract without
// touching disk or a database.
package enginetest

import (
	"context"
	"fmt"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/cardinalhq/lakeview/internal/engine"
	"github.com/cardinalhq/lakeview/internal/pipeline"
)

// InMemory sorts batches entirely in memory: a global stable sort across
// all rows, nulls last in both directions, ties kept in input order.
type InMemory struct {
	// BatchSize caps rows per output record. Zero emits a single record.
	BatchSize int
}

var _ engine.Engine = (*InMemory)(nil)

type rowRef struct {
	rec int
	row int
}

func (e *InMemory) SortBatches(_ context.Context, records []arrow.RecordBatch, q engine.Query) (pipeline.Reader, error) {
	work := make([]arrow.RecordBatch, 0, len(records))
	defer func() { pipeline.ReleaseAll(work) }()
	for _, rec := range records {
		if rec.NumRows() == 0 {
			continue
		}
		if q.Columns != nil {
			projected, err := pipeline.Project(rec, q.Columns)
			if err != nil {
				return nil, err
			}
			work = append(work, projected)
		} else {
			rec.Retain()
			work = append(work, rec)
		}
	}
	if len(work) == 0 {
		return pipeline.NewBatchesReader(nil), nil
	}

	schema := work[0].Schema()
	for _, rec := range work[1:] {
		if !rec.Schema().Equal(schema) {
			return nil, fmt.Errorf("record schema drifted within one sort pass")
		}
	}

	sortCols := make([]int, len(q.Sorts))
	for i, s := range q.Sorts {
		indices := schema.FieldIndices(s.Column)
		if len(indices) == 0 {
			return nil, fmt.Errorf("sort column %q not found in schema", s.Column)
		}
		sortCols[i] = indices[0]
	}

	refs := make([]rowRef, 0, totalRows(work))
	for ri, rec := range work {
		for row := 0; row < int(rec.NumRows()); row++ {
			refs = append(refs, rowRef{rec: ri, row: row})
		}
	}

	sort.SliceStable(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		for k, col := range sortCols {
			va := pipeline.ConvertValue(work[a.rec].Column(col), a.row)
			vb := pipeline.ConvertValue(work[b.rec].Column(col), b.row)
			c := pipeline.CompareValues(va, vb)
			if c == 0 {
				continue
			}
			// Nulls stay last under descending order, so only flip
			// comparisons between two present values.
			if !q.Sorts[k].Ascending && va != nil && vb != nil {
				c = -c
			}
			return c < 0
		}
		return false
	})

	if q.Limit > 0 && int64(len(refs)) > q.Limit {
		refs = refs[:q.Limit]
	}
	if len(refs) == 0 {
		return pipeline.NewBatchesReader(nil), nil
	}

	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = len(refs)
	}
	var out []arrow.RecordBatch
	for start := 0; start < len(refs); start += batchSize {
		end := min(start+batchSize, len(refs))
		rec, err := takeAcross(work, schema, refs[start:end])
		if err != nil {
			pipeline.ReleaseAll(out)
			return nil, err
		}
		out = append(out, rec)
	}

	reader := pipeline.NewBatchesReader(out)
	pipeline.ReleaseAll(out)
	return reader, nil
}

// takeAcross assembles one record from rows scattered over several source
// records, preserving the order of refs.
func takeAcross(work []arrow.RecordBatch, schema *arrow.Schema, refs []rowRef) (arrow.RecordBatch, error) {
	cols := make([]arrow.Array, 0, schema.NumFields())
	defer func() {
		for _, col := range cols {
			col.Release()
		}
	}()

	for field := 0; field < schema.NumFields(); field++ {
		parts := make([]arrow.Array, len(refs))
		for i, ref := range refs {
			parts[i] = array.NewSlice(work[ref.rec].Column(field), int64(ref.row), int64(ref.row+1))
		}
		merged, err := array.Concatenate(parts, memory.DefaultAllocator)
		for _, part := range parts {
			part.Release()
		}
		if err != nil {
			return nil, fmt.Errorf("concatenate column %q: %w", schema.Field(field).Name, err)
		}
		cols = append(cols, merged)
	}

	return array.NewRecordBatch(schema, cols, int64(len(refs))), nil
}

func totalRows(records []arrow.RecordBatch) int {
	n := 0
	for _, rec := range records {
		n += int(rec.NumRows())
	}
	return n
}
