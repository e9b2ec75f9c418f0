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
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// FormatValue renders one cell as text. Nulls become "NULL", structs
// "{name: value, ...}" in field order, lists "[a, b]", strings pass
// through unquoted. Types with no text form render as their uppercase
// type name in angle brackets.
func FormatValue(col arrow.Array, row int) string {
	if col.IsNull(row) {
		return "NULL"
	}
	switch c := col.(type) {
	case *array.Boolean:
		return strconv.FormatBool(c.Value(row))
	case *array.Int8:
		return strconv.FormatInt(int64(c.Value(row)), 10)
	case *array.Int16:
		return strconv.FormatInt(int64(c.Value(row)), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(c.Value(row)), 10)
	case *array.Int64:
		return strconv.FormatInt(c.Value(row), 10)
	case *array.Uint8:
		return strconv.FormatUint(uint64(c.Value(row)), 10)
	case *array.Uint16:
		return strconv.FormatUint(uint64(c.Value(row)), 10)
	case *array.Uint32:
		return strconv.FormatUint(uint64(c.Value(row)), 10)
	case *array.Uint64:
		return strconv.FormatUint(c.Value(row), 10)
	case *array.Float32:
		return strconv.FormatFloat(float64(c.Value(row)), 'g', -1, 32)
	case *array.Float64:
		return strconv.FormatFloat(c.Value(row), 'g', -1, 64)
	case *array.String:
		return c.Value(row)
	case *array.LargeString:
		return c.Value(row)
	case *array.Struct:
		return formatStruct(c, row)
	case *array.List:
		return formatList(c, row)
	case *array.LargeList:
		return formatLargeList(c, row)
	default:
		return "<" + strings.ToUpper(col.DataType().Name()) + ">"
	}
}

func formatStruct(c *array.Struct, row int) string {
	dt := c.DataType().(*arrow.StructType)
	var sb strings.Builder
	sb.WriteString("{")
	for i, field := range dt.Fields() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(field.Name)
		sb.WriteString(": ")
		sb.WriteString(FormatValue(c.Field(i), row))
	}
	sb.WriteString("}")
	return sb.String()
}

func formatList(c *array.List, row int) string {
	start, end := c.ValueOffsets(row)
	return formatListRange(c.ListValues(), int(start), int(end))
}

func formatLargeList(c *array.LargeList, row int) string {
	start, end := c.ValueOffsets(row)
	return formatListRange(c.ListValues(), int(start), int(end))
}

func formatListRange(values arrow.Array, start, end int) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := start; i < end; i++ {
		if i > start {
			sb.WriteString(", ")
		}
		sb.WriteString(FormatValue(values, i))
	}
	sb.WriteString("]")
	return sb.String()
}

// truncateText cuts s to at most n runes and marks the cut with "...".
// n <= 0 disables truncation.
func truncateText(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
