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
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// ScanSchema derives the schema of records rebuilt from a database/sql
// result set: the source schema projected to the query's columns, with
// column types the scan loop cannot rebuild natively (nested, dictionary,
// decimal) degraded to utf8. Every output field is nullable because the
// sort may interleave rows from records with and without values.
func ScanSchema(source *arrow.Schema, columns []string) (*arrow.Schema, error) {
	names := columns
	if len(names) == 0 {
		names = make([]string, source.NumFields())
		for i := range source.NumFields() {
			names[i] = source.Field(i).Name
		}
	}

	fields := make([]arrow.Field, 0, len(names))
	for _, name := range names {
		indices := source.FieldIndices(name)
		if len(indices) == 0 {
			return nil, fmt.Errorf("column %q not found in schema", name)
		}
		field := source.Field(indices[0])
		fields = append(fields, arrow.Field{
			Name:     field.Name,
			Type:     scanType(field.Type),
			Nullable: true,
		})
	}
	return arrow.NewSchema(fields, nil), nil
}

func scanType(dt arrow.DataType) arrow.DataType {
	switch dt.ID() {
	case arrow.BOOL,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64,
		arrow.STRING, arrow.LARGE_STRING,
		arrow.BINARY, arrow.LARGE_BINARY,
		arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return dt
	default:
		return arrow.BinaryTypes.String
	}
}
