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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

// RowsReader streams a database/sql result set back into record batches
// matching a target schema derived by ScanSchema. Values DuckDB returns
// for columns the schema degraded to utf8 are stored as their string
// rendering.
type RowsReader struct {
	rows      *sql.Rows
	conn      *sql.Conn
	schema    *arrow.Schema
	builder   *array.RecordBuilder
	batchSize int
	onClose   func() error

	values   []any
	scanArgs []any

	rowCount  int64
	exhausted bool
	closed    bool
}

// NewRowsReader wraps a result set. The column order of rows must match the
// schema's field order (BuildSelect guarantees this for engine queries).
// onClose, if non-nil, runs after the rows and connection close; use it to
// remove scratch files the query was reading.
func NewRowsReader(rows *sql.Rows, conn *sql.Conn, schema *arrow.Schema, batchSize int, onClose func() error) (*RowsReader, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("duckdb columns: %w", err)
	}
	if len(cols) != schema.NumFields() {
		return nil, fmt.Errorf("result has %d columns, schema expects %d", len(cols), schema.NumFields())
	}

	values := make([]any, len(cols))
	scanArgs := make([]any, len(cols))
	for i := range scanArgs {
		scanArgs[i] = &values[i]
	}

	return &RowsReader{
		rows:      rows,
		conn:      conn,
		schema:    schema,
		builder:   array.NewRecordBuilder(memory.DefaultAllocator, schema),
		batchSize: batchSize,
		onClose:   onClose,
		values:    values,
		scanArgs:  scanArgs,
	}, nil
}

// Next returns the next batch of rows from the result set.
func (r *RowsReader) Next(ctx context.Context) (arrow.RecordBatch, error) {
	if r.closed {
		return nil, errors.New("reader is closed")
	}
	if r.exhausted {
		return nil, io.EOF
	}

	n := 0
	for n < r.batchSize {
		if !r.rows.Next() {
			if err := r.rows.Err(); err != nil {
				return nil, fmt.Errorf("duckdb rows error: %w", err)
			}
			r.exhausted = true
			break
		}

		if err := r.rows.Scan(r.scanArgs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		for i := range r.values {
			field := r.schema.Field(i)
			if err := appendScanned(r.builder.Field(i), field.Type, r.values[i]); err != nil {
				return nil, fmt.Errorf("column %q: %w", field.Name, err)
			}
		}
		n++
	}

	if n == 0 {
		return nil, io.EOF
	}

	r.rowCount += int64(n)
	rowsStreamedCounter.Add(ctx, int64(n), otelmetric.WithAttributes(
		attribute.String("reader", "RowsReader"),
	))

	return r.builder.NewRecordBatch(), nil
}

// Close closes the rows, the connection, and runs the cleanup hook.
func (r *RowsReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	if r.rows != nil {
		if err := r.rows.Close(); err != nil {
			errs = append(errs, err)
		}
		r.rows = nil
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			errs = append(errs, err)
		}
		r.conn = nil
	}
	if r.onClose != nil {
		if err := r.onClose(); err != nil {
			errs = append(errs, err)
		}
		r.onClose = nil
	}
	if r.builder != nil {
		r.builder.Release()
		r.builder = nil
	}
	return errors.Join(errs...)
}

// TotalRowsReturned returns the number of rows returned via Next.
func (r *RowsReader) TotalRowsReturned() int64 {
	return r.rowCount
}

// appendScanned coerces one scanned value into the builder for its column.
func appendScanned(bldr array.Builder, dt arrow.DataType, value any) error {
	if value == nil {
		bldr.AppendNull()
		return nil
	}

	switch b := bldr.(type) {
	case *array.BooleanBuilder:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("type mismatch: expected bool, got %T", value)
		}
		b.Append(v)
	case *array.Int8Builder:
		v, ok := asInt64(value)
		if !ok {
			return fmt.Errorf("type mismatch: expected integer, got %T", value)
		}
		b.Append(int8(v))
	case *array.Int16Builder:
		v, ok := asInt64(value)
		if !ok {
			return fmt.Errorf("type mismatch: expected integer, got %T", value)
		}
		b.Append(int16(v))
	case *array.Int32Builder:
		v, ok := asInt64(value)
		if !ok {
			return fmt.Errorf("type mismatch: expected integer, got %T", value)
		}
		b.Append(int32(v))
	case *array.Int64Builder:
		v, ok := asInt64(value)
		if !ok {
			return fmt.Errorf("type mismatch: expected integer, got %T", value)
		}
		b.Append(v)
	case *array.Uint8Builder:
		v, ok := asUint64(value)
		if !ok {
			return fmt.Errorf("type mismatch: expected unsigned integer, got %T", value)
		}
		b.Append(uint8(v))
	case *array.Uint16Builder:
		v, ok := asUint64(value)
		if !ok {
			return fmt.Errorf("type mismatch: expected unsigned integer, got %T", value)
		}
		b.Append(uint16(v))
	case *array.Uint32Builder:
		v, ok := asUint64(value)
		if !ok {
			return fmt.Errorf("type mismatch: expected unsigned integer, got %T", value)
		}
		b.Append(uint32(v))
	case *array.Uint64Builder:
		v, ok := asUint64(value)
		if !ok {
			return fmt.Errorf("type mismatch: expected unsigned integer, got %T", value)
		}
		b.Append(v)
	case *array.Float32Builder:
		v, ok := asFloat64(value)
		if !ok {
			return fmt.Errorf("type mismatch: expected float, got %T", value)
		}
		b.Append(float32(v))
	case *array.Float64Builder:
		v, ok := asFloat64(value)
		if !ok {
			return fmt.Errorf("type mismatch: expected float, got %T", value)
		}
		b.Append(v)
	case *array.StringBuilder:
		switch v := value.(type) {
		case string:
			b.Append(v)
		case []byte:
			b.Append(string(v))
		default:
			// Degraded column: store the value's string rendering
			b.Append(fmt.Sprintf("%v", v))
		}
	case *array.LargeStringBuilder:
		switch v := value.(type) {
		case string:
			b.Append(v)
		case []byte:
			b.Append(string(v))
		default:
			b.Append(fmt.Sprintf("%v", v))
		}
	case *array.BinaryBuilder:
		switch v := value.(type) {
		case []byte:
			// DuckDB reuses the backing array for BLOB values, so copy before storing
			b.Append(append([]byte(nil), v...))
		case string:
			b.Append([]byte(v))
		default:
			return fmt.Errorf("type mismatch: expected bytes, got %T", value)
		}
	case *array.TimestampBuilder:
		unit := dt.(*arrow.TimestampType).Unit
		switch v := value.(type) {
		case time.Time:
			b.Append(timestampFromTime(v, unit))
		case int64:
			b.Append(arrow.Timestamp(v))
		default:
			return fmt.Errorf("type mismatch: expected timestamp, got %T", value)
		}
	case *array.Date32Builder:
		switch v := value.(type) {
		case time.Time:
			b.Append(arrow.Date32FromTime(v))
		case int64:
			b.Append(arrow.Date32(v))
		default:
			return fmt.Errorf("type mismatch: expected date, got %T", value)
		}
	case *array.Date64Builder:
		switch v := value.(type) {
		case time.Time:
			b.Append(arrow.Date64FromTime(v))
		case int64:
			b.Append(arrow.Date64(v))
		default:
			return fmt.Errorf("type mismatch: expected date, got %T", value)
		}
	default:
		return fmt.Errorf("unsupported builder type: %T", bldr)
	}

	return nil
}

func timestampFromTime(t time.Time, unit arrow.TimeUnit) arrow.Timestamp {
	switch unit {
	case arrow.Second:
		return arrow.Timestamp(t.Unix())
	case arrow.Millisecond:
		return arrow.Timestamp(t.UnixMilli())
	case arrow.Microsecond:
		return arrow.Timestamp(t.UnixMicro())
	default:
		return arrow.Timestamp(t.UnixNano())
	}
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case int:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint8:
		return int64(v), true
	default:
		return 0, false
	}
}

func asUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint32:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int32:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

func asFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	default:
		return 0, false
	}
}
