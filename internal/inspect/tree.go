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
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// writeSchemaTree prints the Arrow schema as a box-drawing tree rooted
// at "root", one line per field with its uppercase type name and a
// nullable marker. Struct, list and map fields recurse.
func writeSchemaTree(w io.Writer, schema *arrow.Schema, kind string) error {
	if _, err := fmt.Fprintf(w, "Schema Tree (%s):\n", kind); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "└── root"); err != nil {
		return err
	}

	n := schema.NumFields()
	for i := range n {
		last := i == n-1
		branch := "    ├── "
		if last {
			branch = "    └── "
		}
		if err := writeTreeField(w, schema.Field(i), branch, "    ", last); err != nil {
			return err
		}
	}
	return nil
}

func writeTreeField(w io.Writer, field arrow.Field, prefix, indent string, lastSibling bool) error {
	nullable := ""
	if field.Nullable {
		nullable = " (nullable)"
	}
	if _, err := fmt.Fprintf(w, "%s%s: %s%s\n", prefix, field.Name, typeName(field.Type), nullable); err != nil {
		return err
	}

	childIndent := "    │   "
	if lastSibling {
		childIndent = "        "
	}

	switch dt := field.Type.(type) {
	case *arrow.StructType:
		n := dt.NumFields()
		for i := range n {
			lastChild := i == n-1
			branch := "├── "
			if lastChild {
				branch = "└── "
			}
			prefix := indent + childIndent + branch
			if err := writeTreeField(w, dt.Field(i), prefix, indent+childIndent, lastChild); err != nil {
				return err
			}
		}
	case *arrow.ListType:
		return writeTreeField(w, dt.ElemField(), indent+childIndent+"└── ", indent+childIndent, true)
	case *arrow.LargeListType:
		return writeTreeField(w, dt.ElemField(), indent+childIndent+"└── ", indent+childIndent, true)
	case *arrow.MapType:
		return writeTreeField(w, dt.ElemField(), indent+childIndent+"└── ", indent+childIndent, true)
	}
	return nil
}

func timeUnitName(unit arrow.TimeUnit) string {
	switch unit {
	case arrow.Second:
		return "Second"
	case arrow.Millisecond:
		return "Millisecond"
	case arrow.Microsecond:
		return "Microsecond"
	default:
		return "Nanosecond"
	}
}

// typeName renders an Arrow data type the way the schema tree spells
// types: uppercase with parameters in parentheses.
func typeName(dt arrow.DataType) string {
	switch t := dt.(type) {
	case *arrow.NullType:
		return "NULL"
	case *arrow.BooleanType:
		return "BOOLEAN"
	case *arrow.Int8Type:
		return "INT8"
	case *arrow.Int16Type:
		return "INT16"
	case *arrow.Int32Type:
		return "INT32"
	case *arrow.Int64Type:
		return "INT64"
	case *arrow.Uint8Type:
		return "UINT8"
	case *arrow.Uint16Type:
		return "UINT16"
	case *arrow.Uint32Type:
		return "UINT32"
	case *arrow.Uint64Type:
		return "UINT64"
	case *arrow.Float16Type:
		return "FLOAT16"
	case *arrow.Float32Type:
		return "FLOAT32"
	case *arrow.Float64Type:
		return "FLOAT64"
	case *arrow.TimestampType:
		if t.TimeZone != "" {
			return fmt.Sprintf("TIMESTAMP(%s, %s)", timeUnitName(t.Unit), t.TimeZone)
		}
		return fmt.Sprintf("TIMESTAMP(%s)", timeUnitName(t.Unit))
	case *arrow.Date32Type:
		return "DATE32"
	case *arrow.Date64Type:
		return "DATE64"
	case *arrow.Time32Type:
		return fmt.Sprintf("TIME32(%s)", timeUnitName(t.Unit))
	case *arrow.Time64Type:
		return fmt.Sprintf("TIME64(%s)", timeUnitName(t.Unit))
	case *arrow.DurationType:
		return fmt.Sprintf("DURATION(%s)", timeUnitName(t.Unit))
	case *arrow.MonthIntervalType, *arrow.DayTimeIntervalType, *arrow.MonthDayNanoIntervalType:
		return fmt.Sprintf("INTERVAL(%s)", t.Name())
	case *arrow.BinaryType:
		return "BINARY"
	case *arrow.FixedSizeBinaryType:
		return fmt.Sprintf("FIXED_SIZE_BINARY(%d)", t.ByteWidth)
	case *arrow.LargeBinaryType:
		return "LARGE_BINARY"
	case *arrow.StringType:
		return "UTF8"
	case *arrow.LargeStringType:
		return "LARGE_UTF8"
	case *arrow.BinaryViewType:
		return "BINARY_VIEW"
	case *arrow.StringViewType:
		return "UTF8_VIEW"
	case *arrow.ListType:
		return "LIST"
	case *arrow.FixedSizeListType:
		return fmt.Sprintf("FIXED_SIZE_LIST(%d)", t.Len())
	case *arrow.LargeListType:
		return "LARGE_LIST"
	case *arrow.StructType:
		return "STRUCT"
	case *arrow.MapType:
		if t.KeysSorted {
			return "MAP(sorted)"
		}
		return "MAP(unsorted)"
	case *arrow.DictionaryType:
		return fmt.Sprintf("DICTIONARY(%s, %s)", typeName(t.IndexType), typeName(t.ValueType))
	case *arrow.Decimal128Type:
		return fmt.Sprintf("DECIMAL128(%d, %d)", t.Precision, t.Scale)
	case *arrow.Decimal256Type:
		return fmt.Sprintf("DECIMAL256(%d, %d)", t.Precision, t.Scale)
	case *arrow.RunEndEncodedType:
		return "RUN_END_ENCODED"
	default:
		return strings.ToUpper(dt.Name())
	}
}
