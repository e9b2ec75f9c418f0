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
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/cardinalhq/lakeview/internal/pipeline"
)

// streamNDJSON writes one JSON object per row, record by record, without
// buffering the stream. Objects keep the schema's field order, which
// stdlib map marshalling would destroy, so objects are assembled by hand
// and only leaf values go through encoding/json.
func streamNDJSON(ctx context.Context, r pipeline.Reader, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for {
		rec, err := r.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		err = writeNDJSONRecord(bw, rec)
		rec.Release()
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeNDJSONRecord(w *bufio.Writer, rec arrow.RecordBatch) error {
	schema := rec.Schema()
	for row := 0; row < int(rec.NumRows()); row++ {
		w.WriteByte('{')
		for col := 0; col < int(rec.NumCols()); col++ {
			if col > 0 {
				w.WriteByte(',')
			}
			if err := writeJSONString(w, schema.Field(col).Name); err != nil {
				return err
			}
			w.WriteByte(':')
			if err := writeJSONValue(w, rec.Column(col), row); err != nil {
				return err
			}
		}
		w.WriteByte('}')
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

func writeJSONString(w *bufio.Writer, s string) error {
	enc, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = w.Write(enc)
	return err
}

// writeJSONValue encodes one cell. Structs and lists recurse so nested
// objects also keep field order; every other type round-trips through
// ConvertValue and encoding/json.
func writeJSONValue(w *bufio.Writer, col arrow.Array, row int) error {
	if col.IsNull(row) {
		_, err := w.WriteString("null")
		return err
	}
	switch c := col.(type) {
	case *array.Struct:
		dt := c.DataType().(*arrow.StructType)
		w.WriteByte('{')
		for i, field := range dt.Fields() {
			if i > 0 {
				w.WriteByte(',')
			}
			if err := writeJSONString(w, field.Name); err != nil {
				return err
			}
			w.WriteByte(':')
			if err := writeJSONValue(w, c.Field(i), row); err != nil {
				return err
			}
		}
		return w.WriteByte('}')
	case *array.List:
		start, end := c.ValueOffsets(row)
		return writeJSONList(w, c.ListValues(), int(start), int(end))
	case *array.LargeList:
		start, end := c.ValueOffsets(row)
		return writeJSONList(w, c.ListValues(), int(start), int(end))
	default:
		enc, err := json.Marshal(pipeline.ConvertValue(col, row))
		if err != nil {
			return fmt.Errorf("encode %s value: %w", col.DataType().Name(), err)
		}
		_, err = w.Write(enc)
		return err
	}
}

func writeJSONList(w *bufio.Writer, values arrow.Array, start, end int) error {
	w.WriteByte('[')
	for i := start; i < end; i++ {
		if i > start {
			w.WriteByte(',')
		}
		if err := writeJSONValue(w, values, i); err != nil {
			return err
		}
	}
	return w.WriteByte(']')
}
