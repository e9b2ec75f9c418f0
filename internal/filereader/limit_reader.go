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
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/lakeview/internal/pipeline"
)

// LimitReader caps the total rows flowing downstream. A limit of zero
// passes everything through. Batches fully inside the budget pass
// unchanged; the batch straddling the boundary is cut to its row prefix;
// once the budget is spent the source is never pulled again. Applying
// the same limit twice yields the same stream.
type LimitReader struct {
	source   pipeline.Reader
	limit    int64
	rowCount int64
	closed   bool
}

var _ pipeline.Reader = (*LimitReader)(nil)

// NewLimitReader wraps source with a total row budget of limit.
func NewLimitReader(source pipeline.Reader, limit int64) *LimitReader {
	return &LimitReader{
		source: source,
		limit:  limit,
	}
}

// Next returns the next batch, truncated at the row budget.
func (r *LimitReader) Next(ctx context.Context) (arrow.RecordBatch, error) {
	if r.closed {
		return nil, errors.New("reader is closed")
	}
	if r.limit > 0 && r.rowCount >= r.limit {
		return nil, io.EOF
	}

	rec, err := r.source.Next(ctx)
	if err != nil {
		return nil, err
	}

	if r.limit > 0 {
		remaining := r.limit - r.rowCount
		if rec.NumRows() > remaining {
			cut := pipeline.Prefix(rec, remaining)
			rec.Release()
			rec = cut
		}
	}

	r.rowCount += rec.NumRows()
	rowsOutCounter.Add(ctx, rec.NumRows(), otelmetric.WithAttributes(
		attribute.String("reader", "LimitReader"),
	))
	return rec, nil
}

// Close closes the reader and the underlying source.
func (r *LimitReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.source.Close()
}

// TotalRowsReturned returns the number of rows returned via Next.
func (r *LimitReader) TotalRowsReturned() int64 {
	return r.rowCount
}
