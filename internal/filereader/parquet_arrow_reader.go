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

package filereader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/lakeview/internal/pipeline"
)

// ParquetArrowReader streams a Parquet file as Arrow records through the
// pqarrow record reader. Values are passed through untouched, including
// nested columns; an optional projection restricts output to named
// top-level columns.
type ParquetArrowReader struct {
	pr        *file.Reader
	rr        pqarrow.RecordReader
	schema    *arrow.Schema
	columns   []string
	rowCount  int64
	closed    bool
	exhausted bool
}

var _ pipeline.Reader = (*ParquetArrowReader)(nil)

// NewParquetArrowReader creates a reader for the given parquet source.
// A nil columns slice reads everything. Closing the reader closes the
// underlying source.
func NewParquetArrowReader(ctx context.Context, reader parquet.ReaderAtSeeker, batchSize int, columns []string) (*ParquetArrowReader, error) {
	pf, err := file.NewParquetReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	if batchSize <= 0 {
		batchSize = 1000
	}

	props := pqarrow.ArrowReadProperties{BatchSize: int64(batchSize)}
	fr, err := pqarrow.NewFileReader(pf, props, memory.DefaultAllocator)
	if err != nil {
		_ = pf.Close()
		return nil, fmt.Errorf("failed to create arrow file reader: %w", err)
	}

	schema, err := fr.Schema()
	if err != nil {
		_ = pf.Close()
		return nil, fmt.Errorf("failed to get arrow schema: %w", err)
	}
	for _, name := range columns {
		if len(schema.FieldIndices(name)) == 0 {
			_ = pf.Close()
			return nil, fmt.Errorf("column %q not found in schema", name)
		}
	}

	rr, err := fr.GetRecordReader(ctx, nil, nil)
	if err != nil {
		_ = pf.Close()
		return nil, fmt.Errorf("failed to create record reader: %w", err)
	}

	return &ParquetArrowReader{
		pr:      pf,
		rr:      rr,
		schema:  schema,
		columns: columns,
	}, nil
}

// Schema returns the file's Arrow schema before projection.
func (r *ParquetArrowReader) Schema() *arrow.Schema {
	return r.schema
}

// Next returns the next record from the parquet file.
func (r *ParquetArrowReader) Next(ctx context.Context) (arrow.RecordBatch, error) {
	if r.closed {
		return nil, errors.New("reader is closed")
	}
	if r.exhausted {
		return nil, io.EOF
	}

	rec, err := r.rr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			r.exhausted = true
			return nil, io.EOF
		}
		return nil, fmt.Errorf("arrow read error: %w", err)
	}
	if rec == nil || rec.NumRows() == 0 {
		r.exhausted = true
		return nil, io.EOF
	}

	if r.columns != nil {
		projected, err := pipeline.Project(rec, r.columns)
		rec.Release()
		if err != nil {
			return nil, err
		}
		rec = projected
	}

	rowsInCounter.Add(ctx, rec.NumRows(), otelmetric.WithAttributes(
		attribute.String("reader", "ParquetArrowReader"),
	))
	r.rowCount += rec.NumRows()
	return rec, nil
}

// Close releases resources associated with the reader.
func (r *ParquetArrowReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.rr != nil {
		r.rr.Release()
		r.rr = nil
	}
	if r.pr != nil {
		if err := r.pr.Close(); err != nil {
			return err
		}
		r.pr = nil
	}
	return nil
}

// TotalRowsReturned returns the total number of rows returned via Next.
func (r *ParquetArrowReader) TotalRowsReturned() int64 {
	return r.rowCount
}
