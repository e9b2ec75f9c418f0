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

package render

import (
	"context"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakeview/internal/pipeline"
)

var testSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "name", Type: arrow.BinaryTypes.String},
	{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

func buildTestRecord(t *testing.T) arrow.RecordBatch {
	t.Helper()
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), testSchema)
	defer builder.Release()

	builder.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	builder.Field(1).(*array.StringBuilder).AppendValues([]string{"alpha", "beta"}, nil)
	builder.Field(2).(*array.Float64Builder).Append(1.5)
	builder.Field(2).(*array.Float64Builder).AppendNull()
	return builder.NewRecordBatch()
}

func renderToString(t *testing.T, opts Options) string {
	t.Helper()
	rec := buildTestRecord(t)
	defer rec.Release()
	r := pipeline.NewBatchesReader([]arrow.RecordBatch{rec})
	defer func() { require.NoError(t, r.Close()) }()

	var sb strings.Builder
	require.NoError(t, Stream(context.Background(), r, &sb, opts))
	return sb.String()
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"table":    FormatTable,
		"NDJSON":   FormatNDJSON,
		"Vertical": FormatVertical,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("csv")
	assert.ErrorContains(t, err, `unknown output format "csv"`)
}

func TestStreamTable(t *testing.T) {
	out := renderToString(t, Options{Format: FormatTable})
	assert.Contains(t, out, "id")
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "1.5")
}

func TestStreamTableTruncate(t *testing.T) {
	out := renderToString(t, Options{Format: FormatTable, Truncate: 3})
	assert.Contains(t, out, "alp...")
	assert.Contains(t, out, "bet...")
	// Values at or under the cap stay whole.
	assert.Contains(t, out, "1.5")
	assert.NotContains(t, out, "alpha")
}

func TestStreamVertical(t *testing.T) {
	out := renderToString(t, Options{Format: FormatVertical})
	assert.Contains(t, out, "*************************** 1 ***************************")
	assert.Contains(t, out, "*************************** 2 ***************************")
	assert.Contains(t, out, "id: 1\n")
	assert.Contains(t, out, "name: alpha\n")
	assert.Contains(t, out, "score: NULL\n")
}

func TestStreamNDJSON(t *testing.T) {
	out := renderToString(t, Options{Format: FormatNDJSON})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	// Field order follows the schema, not map iteration order.
	assert.Equal(t, `{"id":1,"name":"alpha","score":1.5}`, lines[0])
	assert.Equal(t, `{"id":2,"name":"beta","score":null}`, lines[1])
}

func TestStreamEmptyReader(t *testing.T) {
	r := pipeline.NewBatchesReader(nil)
	defer func() { require.NoError(t, r.Close()) }()

	var sb strings.Builder
	require.NoError(t, Stream(context.Background(), r, &sb, Options{Format: FormatTable}))
	assert.Empty(t, sb.String())
}

func TestFormatValueNested(t *testing.T) {
	structType := arrow.StructOf(
		arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Int64},
		arrow.Field{Name: "y", Type: arrow.BinaryTypes.String},
	)
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "s", Type: structType},
		{Name: "l", Type: arrow.ListOf(arrow.PrimitiveTypes.Int64)},
	}, nil)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	sb := builder.Field(0).(*array.StructBuilder)
	sb.Append(true)
	sb.FieldBuilder(0).(*array.Int64Builder).Append(7)
	sb.FieldBuilder(1).(*array.StringBuilder).Append("hi")

	lb := builder.Field(1).(*array.ListBuilder)
	lb.Append(true)
	lb.ValueBuilder().(*array.Int64Builder).AppendValues([]int64{1, 2, 3}, nil)

	rec := builder.NewRecordBatch()
	defer rec.Release()

	assert.Equal(t, "{x: 7, y: hi}", FormatValue(rec.Column(0), 0))
	assert.Equal(t, "[1, 2, 3]", FormatValue(rec.Column(1), 0))
}

func TestTruncateTextRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncateText("héllo", 5))
	assert.Equal(t, "hél...", truncateText("héllo!", 3))
	assert.Equal(t, "héllo", truncateText("héllo", 0))
}
