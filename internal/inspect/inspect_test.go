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

package inspect

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakeview/internal/filereader"
)

func writeParquetFixture(t *testing.T, rows int64) string {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()
	for i := int64(0); i < rows; i++ {
		builder.Field(0).(*array.Int64Builder).Append(i)
		builder.Field(1).(*array.StringBuilder).Append("row")
	}
	rec := builder.NewRecordBatch()
	defer rec.Release()

	path := filepath.Join(t.TempDir(), "fixture.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)

	props := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(memory.DefaultAllocator))
	writer, err := pqarrow.NewFileWriter(schema, f, parquet.NewWriterProperties(), props)
	require.NoError(t, err)
	require.NoError(t, writer.Write(rec))
	require.NoError(t, writer.Close())
	return path
}

func openFixtureSource(t *testing.T, path string) filereader.Source {
	t.Helper()
	src, err := filereader.OpenSource(context.Background(), path, t.TempDir(), 100)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, src.Close()) })
	return src
}

func TestParseSchemaFormat(t *testing.T) {
	got, err := ParseSchemaFormat("Tree")
	require.NoError(t, err)
	assert.Equal(t, SchemaTree, got)

	got, err = ParseSchemaFormat("raw")
	require.NoError(t, err)
	assert.Equal(t, SchemaRaw, got)

	_, err = ParseSchemaFormat("json")
	assert.ErrorContains(t, err, `unknown schema format "json"`)
}

func TestWriteSchemaRawParquet(t *testing.T) {
	src := openFixtureSource(t, writeParquetFixture(t, 3))

	var sb strings.Builder
	require.NoError(t, WriteSchema(context.Background(), &sb, src, SchemaRaw))
	assert.Contains(t, sb.String(), "id")
	assert.Contains(t, sb.String(), "name")
}

func TestWriteSchemaTreeParquet(t *testing.T) {
	src := openFixtureSource(t, writeParquetFixture(t, 3))

	var sb strings.Builder
	require.NoError(t, WriteSchema(context.Background(), &sb, src, SchemaTree))

	out := sb.String()
	assert.Contains(t, out, "Schema Tree (parquet):")
	assert.Contains(t, out, "└── root")
	assert.Contains(t, out, "├── id: INT64")
	assert.Contains(t, out, "└── name: UTF8 (nullable)")
}

func TestWriteSchemaTreeNested(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "who", Type: arrow.StructOf(
			arrow.Field{Name: "name", Type: arrow.BinaryTypes.String},
			arrow.Field{Name: "age", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		)},
		{Name: "tags", Type: arrow.ListOf(arrow.BinaryTypes.String)},
	}, nil)

	var sb strings.Builder
	require.NoError(t, writeSchemaTree(&sb, schema, "parquet"))

	want := strings.Join([]string{
		"Schema Tree (parquet):",
		"└── root",
		"    ├── who: STRUCT",
		"        │   ├── name: UTF8",
		"        │   └── age: INT32 (nullable)",
		"    └── tags: LIST",
		"            └── item: UTF8 (nullable)",
		"",
	}, "\n")
	assert.Equal(t, want, sb.String())
}

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "TIMESTAMP(Millisecond, UTC)", typeName(&arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}))
	assert.Equal(t, "TIMESTAMP(Nanosecond)", typeName(&arrow.TimestampType{Unit: arrow.Nanosecond}))
	assert.Equal(t, "FLOAT64", typeName(arrow.PrimitiveTypes.Float64))
	assert.Equal(t, "MAP(unsorted)", typeName(arrow.MapOf(arrow.BinaryTypes.String, arrow.PrimitiveTypes.Int64)))
	assert.Equal(t, "FIXED_SIZE_BINARY(16)", typeName(&arrow.FixedSizeBinaryType{ByteWidth: 16}))
}

func TestWriteMetadataParquet(t *testing.T) {
	src := openFixtureSource(t, writeParquetFixture(t, 5))

	var sb strings.Builder
	require.NoError(t, WriteMetadata(context.Background(), &sb, src))

	out := sb.String()
	assert.Contains(t, out, "Number of row groups: 1")
	assert.Contains(t, out, "Number of rows: 5")
	assert.Contains(t, out, "Created by: ")
}
