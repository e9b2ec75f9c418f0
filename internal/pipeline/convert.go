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
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// ConvertValue converts the Arrow array value at index i to a Go value.
// Integers widen to int64, unsigned to uint64, floats to float64, and
// timestamps normalize to epoch milliseconds. Strings and byte slices are
// copied so the result does not alias Arrow buffer memory. Null values
// return nil.
func ConvertValue(col arrow.Array, i int) any {
	if col.IsNull(i) {
		return nil
	}
	switch c := col.(type) {
	case *array.Boolean:
		return c.Value(i)
	case *array.Int8:
		return int64(c.Value(i))
	case *array.Int16:
		return int64(c.Value(i))
	case *array.Int32:
		return int64(c.Value(i))
	case *array.Int64:
		return c.Value(i)
	case *array.Uint8:
		return uint64(c.Value(i))
	case *array.Uint16:
		return uint64(c.Value(i))
	case *array.Uint32:
		return uint64(c.Value(i))
	case *array.Uint64:
		return c.Value(i)
	case *array.Float32:
		return float64(c.Value(i))
	case *array.Float64:
		return c.Value(i)
	case *array.String:
		// Copy the string to avoid holding reference to Arrow buffer memory
		return strings.Clone(c.Value(i))
	case *array.LargeString:
		// Copy the string to avoid holding reference to Arrow buffer memory
		return strings.Clone(c.Value(i))
	case *array.Binary:
		// Copy the bytes to avoid holding reference to Arrow buffer memory
		b := c.Value(i)
		copied := make([]byte, len(b))
		copy(copied, b)
		return copied
	case *array.LargeBinary:
		// Copy the bytes to avoid holding reference to Arrow buffer memory
		b := c.Value(i)
		copied := make([]byte, len(b))
		copy(copied, b)
		return copied
	case *array.Timestamp:
		tsType := c.DataType().(*arrow.TimestampType)
		ts := c.Value(i)
		switch tsType.Unit {
		case arrow.Second:
			ts *= 1000
		case arrow.Millisecond:
			// already ms
		case arrow.Microsecond:
			ts /= 1000
		case arrow.Nanosecond:
			ts /= 1000000
		}
		return int64(ts)
	case *array.Date32:
		return int64(c.Value(i))
	case *array.Date64:
		return int64(c.Value(i))
	case *array.List:
		return convertListValue(c, i)
	case *array.Struct:
		return convertStructValue(c, i)
	case *array.Map:
		return convertMapValue(c, i)
	default:
		// For unknown types, fall back to the string representation
		return c.ValueStr(i)
	}
}

func convertListValue(arr *array.List, i int) any {
	start, end := arr.ValueOffsets(i)
	values := arr.ListValues()

	result := make([]any, 0, end-start)
	for j := start; j < end; j++ {
		if values.IsNull(int(j)) {
			result = append(result, nil)
		} else {
			result = append(result, ConvertValue(values, int(j)))
		}
	}
	return result
}

func convertStructValue(arr *array.Struct, i int) any {
	dt := arr.DataType().(*arrow.StructType)
	fields := dt.Fields()

	result := make(map[string]any)
	for j, field := range fields {
		col := arr.Field(j)
		if !col.IsNull(i) {
			result[field.Name] = ConvertValue(col, i)
		}
	}
	return result
}

func convertMapValue(arr *array.Map, i int) any {
	start, end := arr.ValueOffsets(i)
	keys := arr.Keys()
	items := arr.Items()

	result := make(map[string]any)
	for j := start; j < end; j++ {
		key := ConvertValue(keys, int(j))
		value := ConvertValue(items, int(j))
		if keyStr, ok := key.(string); ok {
			result[keyStr] = value
		} else {
			result[fmt.Sprintf("%v", key)] = value
		}
	}
	return result
}

// CompareValues orders two converted values. It assumes both came from the
// same column, so after ConvertValue normalization they share a type; when
// they do not, numerics are compared as float64 and everything else falls
// back to string comparison. nil sorts after any non-nil value.
func CompareValues(a, b any) int {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0
		}
		if a == nil {
			return 1
		}
		return -1
	}

	switch av := a.(type) {
	case bool:
		if bv, ok := b.(bool); ok {
			if av == bv {
				return 0
			}
			if !av {
				return -1
			}
			return 1
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return cmp.Compare(av, bv)
		}
	case uint64:
		if bv, ok := b.(uint64); ok {
			return cmp.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return cmp.Compare(av, bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return cmp.Compare(av, bv)
		}
	case []byte:
		if bv, ok := b.([]byte); ok {
			return bytes.Compare(av, bv)
		}
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return cmp.Compare(af, bf)
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
