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
	"context"
	"io"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "name", Type: arrow.BinaryTypes.String},
	{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

func sampleRecord(t *testing.T, ids []int64) arrow.RecordBatch {
	t.Helper()
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), sampleSchema)
	defer builder.Release()
	for _, id := range ids {
		builder.Field(0).(*array.Int64Builder).Append(id)
		builder.Field(1).(*array.StringBuilder).Append("row")
		if id%2 == 0 {
			builder.Field(2).(*array.Float64Builder).AppendNull()
		} else {
			builder.Field(2).(*array.Float64Builder).Append(float64(id))
		}
	}
	return builder.NewRecordBatch()
}

func TestBatchesReaderReplaysAndSkipsEmpty(t *testing.T) {
	recA := sampleRecord(t, []int64{1, 2})
	recEmpty := sampleRecord(t, nil)
	recB := sampleRecord(t, []int64{3})
	r := NewBatchesReader([]arrow.RecordBatch{recA, recEmpty, recB})
	recA.Release()
	recEmpty.Release()
	recB.Release()
	defer func() { require.NoError(t, r.Close()) }()

	ctx := context.Background()
	first, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.NumRows())
	first.Release()

	second, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.NumRows())
	second.Release()

	_, err = r.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, int64(3), r.TotalRowsReturned())
}

func TestBatchesReaderClosedNext(t *testing.T) {
	r := NewBatchesReader(nil)
	require.NoError(t, r.Close())
	_, err := r.Next(context.Background())
	assert.Error(t, err)
}

func TestReadAll(t *testing.T) {
	rec := sampleRecord(t, []int64{1, 2, 3})
	r := NewBatchesReader([]arrow.RecordBatch{rec})
	rec.Release()
	defer func() { require.NoError(t, r.Close()) }()

	records, err := ReadAll(context.Background(), r)
	require.NoError(t, err)
	defer ReleaseAll(records)
	require.Len(t, records, 1)
	assert.Equal(t, int64(3), records[0].NumRows())
}

func TestFieldNames(t *testing.T) {
	assert.Equal(t, []string{"id", "name", "score"}, FieldNames(sampleSchema))
}

func TestProject(t *testing.T) {
	rec := sampleRecord(t, []int64{7})
	defer rec.Release()

	projected, err := Project(rec, []string{"score", "id"})
	require.NoError(t, err)
	defer projected.Release()

	assert.Equal(t, []string{"score", "id"}, FieldNames(projected.Schema()))
	assert.Equal(t, int64(7), projected.Column(1).(*array.Int64).Value(0))

	_, err = Project(rec, []string{"missing"})
	assert.ErrorContains(t, err, `column "missing" not found`)
}

func TestPrefix(t *testing.T) {
	rec := sampleRecord(t, []int64{1, 2, 3})
	defer rec.Release()

	head := Prefix(rec, 2)
	assert.Equal(t, int64(2), head.NumRows())
	head.Release()

	whole := Prefix(rec, 10)
	assert.Equal(t, int64(3), whole.NumRows())
	whole.Release()

	none := Prefix(rec, -1)
	assert.Equal(t, int64(0), none.NumRows())
	none.Release()
}

func TestTakeIndices(t *testing.T) {
	rec := sampleRecord(t, []int64{10, 20, 30})
	defer rec.Release()

	taken, err := TakeIndices(rec, []int{2, 0})
	require.NoError(t, err)
	defer taken.Release()

	ids := taken.Column(0).(*array.Int64)
	assert.Equal(t, int64(30), ids.Value(0))
	assert.Equal(t, int64(10), ids.Value(1))

	_, err = TakeIndices(rec, []int{3})
	assert.ErrorContains(t, err, "out of range")

	empty, err := TakeIndices(rec, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.NumRows())
	empty.Release()
}

func TestConvertValueScalars(t *testing.T) {
	rec := sampleRecord(t, []int64{1, 2})
	defer rec.Release()

	assert.Equal(t, int64(2), ConvertValue(rec.Column(0), 1))
	assert.Equal(t, "row", ConvertValue(rec.Column(1), 0))
	assert.Equal(t, float64(1), ConvertValue(rec.Column(2), 0))
	assert.Nil(t, ConvertValue(rec.Column(2), 1))
}

func TestConvertValueTimestampNormalizesToMillis(t *testing.T) {
	for _, tc := range []struct {
		unit arrow.TimeUnit
		raw  int64
	}{
		{arrow.Second, 12},
		{arrow.Millisecond, 12_000},
		{arrow.Microsecond, 12_000_000},
		{arrow.Nanosecond, 12_000_000_000},
	} {
		dt := &arrow.TimestampType{Unit: tc.unit, TimeZone: "UTC"}
		b := array.NewTimestampBuilder(memory.NewGoAllocator(), dt)
		b.Append(arrow.Timestamp(tc.raw))
		col := b.NewArray()
		b.Release()

		assert.Equal(t, int64(12_000), ConvertValue(col, 0), "unit %s", tc.unit)
		col.Release()
	}
}

func TestCompareValues(t *testing.T) {
	assert.Equal(t, 0, CompareValues(int64(1), int64(1)))
	assert.Equal(t, -1, CompareValues(int64(1), int64(2)))
	assert.Equal(t, 1, CompareValues("b", "a"))
	assert.Equal(t, -1, CompareValues(false, true))
	assert.Equal(t, -1, CompareValues([]byte("a"), []byte("b")))

	// Mixed numeric widths compare numerically.
	assert.Equal(t, 0, CompareValues(int64(3), float64(3)))

	// nil sorts after everything.
	assert.Equal(t, 1, CompareValues(nil, int64(0)))
	assert.Equal(t, -1, CompareValues(int64(0), nil))
	assert.Equal(t, 0, CompareValues(nil, nil))
}
