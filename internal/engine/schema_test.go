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

package engine

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSchema(t *testing.T) {
	source := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "ts", Type: arrow.FixedWidthTypes.Timestamp_us},
		{Name: "tags", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
	}, nil)

	t.Run("nil columns keeps every field", func(t *testing.T) {
		got, err := ScanSchema(source, nil)
		require.NoError(t, err)
		require.Equal(t, 5, got.NumFields())
		for i := range got.NumFields() {
			assert.Equal(t, source.Field(i).Name, got.Field(i).Name)
			assert.True(t, got.Field(i).Nullable, "field %q must be nullable", got.Field(i).Name)
		}
	})

	t.Run("scalar types survive", func(t *testing.T) {
		got, err := ScanSchema(source, []string{"id", "name", "score", "ts"})
		require.NoError(t, err)
		assert.Equal(t, arrow.PrimitiveTypes.Int64, got.Field(0).Type)
		assert.Equal(t, arrow.BinaryTypes.String, got.Field(1).Type)
		assert.Equal(t, arrow.PrimitiveTypes.Float64, got.Field(2).Type)
		assert.Equal(t, arrow.FixedWidthTypes.Timestamp_us, got.Field(3).Type)
	})

	t.Run("nested types degrade to utf8", func(t *testing.T) {
		got, err := ScanSchema(source, []string{"tags"})
		require.NoError(t, err)
		assert.Equal(t, arrow.BinaryTypes.String, got.Field(0).Type)
	})

	t.Run("projection reorders", func(t *testing.T) {
		got, err := ScanSchema(source, []string{"name", "id"})
		require.NoError(t, err)
		require.Equal(t, 2, got.NumFields())
		assert.Equal(t, "name", got.Field(0).Name)
		assert.Equal(t, "id", got.Field(1).Name)
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := ScanSchema(source, []string{"id", "missing"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"missing"`)
	})
}

func TestScanTypeDegradesExotics(t *testing.T) {
	kept := []arrow.DataType{
		arrow.FixedWidthTypes.Boolean,
		arrow.PrimitiveTypes.Int8,
		arrow.PrimitiveTypes.Uint64,
		arrow.PrimitiveTypes.Float32,
		arrow.BinaryTypes.LargeString,
		arrow.BinaryTypes.Binary,
		arrow.FixedWidthTypes.Date32,
	}
	for _, dt := range kept {
		assert.Equal(t, dt, scanType(dt), "type %s should be kept", dt)
	}

	degraded := []arrow.DataType{
		arrow.StructOf(arrow.Field{Name: "a", Type: arrow.PrimitiveTypes.Int64}),
		arrow.MapOf(arrow.BinaryTypes.String, arrow.BinaryTypes.String),
		arrow.ListOf(arrow.PrimitiveTypes.Int32),
		&arrow.Decimal128Type{Precision: 18, Scale: 2},
	}
	for _, dt := range degraded {
		assert.Equal(t, arrow.BinaryTypes.String, scanType(dt), "type %s should degrade", dt)
	}
}
