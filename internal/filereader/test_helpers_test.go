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

package filereader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakeview/internal/pipeline"
)

var testSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "name", Type: arrow.BinaryTypes.String},
	{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

type testRow struct {
	id    int64
	name  string
	score *float64
}

func scoreOf(v float64) *float64 { return &v }

func buildTestRecord(t *testing.T, rows ...testRow) arrow.RecordBatch {
	t.Helper()
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), testSchema)
	defer builder.Release()
	for _, r := range rows {
		builder.Field(0).(*array.Int64Builder).Append(r.id)
		builder.Field(1).(*array.StringBuilder).Append(r.name)
		if r.score == nil {
			builder.Field(2).(*array.Float64Builder).AppendNull()
		} else {
			builder.Field(2).(*array.Float64Builder).Append(*r.score)
		}
	}
	return builder.NewRecordBatch()
}

// buildSequenceRecord creates a record with the given number of rows
// whose id column counts up from start. Used by the chunking tests,
// which need six-figure row counts.
func buildSequenceRecord(t *testing.T, start, count int64) arrow.RecordBatch {
	t.Helper()
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), testSchema)
	defer builder.Release()
	ids := builder.Field(0).(*array.Int64Builder)
	names := builder.Field(1).(*array.StringBuilder)
	scores := builder.Field(2).(*array.Float64Builder)
	ids.Reserve(int(count))
	for i := int64(0); i < count; i++ {
		ids.Append(start + i)
		names.Append("row")
		scores.Append(float64(start + i))
	}
	return builder.NewRecordBatch()
}

// writeParquetFile writes the records into name under dir and returns
// the full path.
func writeParquetFile(t *testing.T, dir, name string, records ...arrow.RecordBatch) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)

	props := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(memory.DefaultAllocator))
	writer, err := pqarrow.NewFileWriter(records[0].Schema(), f, parquet.NewWriterProperties(), props)
	require.NoError(t, err)
	for _, rec := range records {
		require.NoError(t, writer.Write(rec))
	}
	require.NoError(t, writer.Close())
	return path
}

// readColumn drains a reader and collects one column's converted values.
func readColumn(t *testing.T, r pipeline.Reader, name string) []any {
	t.Helper()
	records, err := pipeline.ReadAll(context.Background(), r)
	require.NoError(t, err)
	t.Cleanup(func() { pipeline.ReleaseAll(records) })

	out := []any{}
	for _, rec := range records {
		indices := rec.Schema().FieldIndices(name)
		require.NotEmpty(t, indices, "column %q missing", name)
		col := rec.Column(indices[0])
		for i := 0; i < int(rec.NumRows()); i++ {
			out = append(out, pipeline.ConvertValue(col, i))
		}
	}
	return out
}

// countingReader wraps a reader and tracks how many rows were pulled
// from it, so tests can observe short-circuiting.
type countingReader struct {
	inner      pipeline.Reader
	rowsPulled int64
}

func (c *countingReader) Next(ctx context.Context) (arrow.RecordBatch, error) {
	rec, err := c.inner.Next(ctx)
	if err != nil {
		return nil, err
	}
	c.rowsPulled += rec.NumRows()
	return rec, nil
}

func (c *countingReader) Close() error { return c.inner.Close() }

func (c *countingReader) TotalRowsReturned() int64 { return c.inner.TotalRowsReturned() }
