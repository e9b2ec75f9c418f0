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
	"sort"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/cardinalhq/lakeview/internal/pipeline"
	"github.com/cardinalhq/lakeview/internal/sortspec"
)

// TopKReader materializes its source, sorts each batch independently on
// one column, and keeps that batch's first k rows. Batches come out in
// input order with no cross-batch merge, so the output is ordered within
// batches only; the limit stage downstream enforces the row budget and
// does not reorder. Nulls sort last under both directions; ties keep
// their original row order.
//
// Memory Impact: HIGH - the whole source is loaded before the first
// batch is returned. The strategy selector only routes small-limit
// single-key requests here.
type TopKReader struct {
	source   pipeline.Reader
	spec     sortspec.Spec
	k        int64
	inner    *pipeline.BatchesReader
	closed   bool
	rowCount int64
}

var _ pipeline.Reader = (*TopKReader)(nil)

// NewTopKReader wraps source. k caps the rows kept per batch; zero keeps
// every row, still batch-locally sorted.
func NewTopKReader(source pipeline.Reader, spec sortspec.Spec, k int64) *TopKReader {
	return &TopKReader{
		source: source,
		spec:   spec,
		k:      k,
	}
}

// load drains the source and sorts-and-truncates every batch.
func (r *TopKReader) load(ctx context.Context) error {
	records, err := pipeline.ReadAll(ctx, r.source)
	if err != nil {
		return fmt.Errorf("failed to read from underlying reader: %w", err)
	}

	kept := make([]arrow.RecordBatch, 0, len(records))
	for _, rec := range records {
		top, err := topOfBatch(rec, r.spec, r.k)
		if err != nil {
			pipeline.ReleaseAll(kept)
			pipeline.ReleaseAll(records)
			return err
		}
		kept = append(kept, top)
	}
	pipeline.ReleaseAll(records)

	r.inner = pipeline.NewBatchesReader(kept)
	pipeline.ReleaseAll(kept)
	return nil
}

// Next returns the next sorted-and-truncated batch.
func (r *TopKReader) Next(ctx context.Context) (arrow.RecordBatch, error) {
	if r.closed {
		return nil, errors.New("reader is closed")
	}
	if r.inner == nil {
		if err := r.load(ctx); err != nil {
			return nil, err
		}
	}

	rec, err := r.inner.Next(ctx)
	if err != nil {
		return nil, err
	}
	r.rowCount += rec.NumRows()
	return rec, nil
}

// Close closes the reader and the underlying source.
func (r *TopKReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var innerErr error
	if r.inner != nil {
		innerErr = r.inner.Close()
		r.inner = nil
	}
	return errors.Join(innerErr, r.source.Close())
}

// TotalRowsReturned returns the number of rows returned via Next.
func (r *TopKReader) TotalRowsReturned() int64 {
	return r.rowCount
}

// topOfBatch computes the full stable ordering of one batch's rows on
// the sort column and materializes the first k. k <= 0 keeps all rows.
func topOfBatch(rec arrow.RecordBatch, spec sortspec.Spec, k int64) (arrow.RecordBatch, error) {
	indices := rec.Schema().FieldIndices(spec.Column)
	if len(indices) == 0 {
		return nil, fmt.Errorf("sort column %q: %w", spec.Column, sortspec.ErrColumnNotFound)
	}
	col := rec.Column(indices[0])

	n := int(rec.NumRows())
	values := make([]any, n)
	for i := range values {
		values[i] = pipeline.ConvertValue(col, i)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := values[order[a]], values[order[b]]
		c := pipeline.CompareValues(va, vb)
		if c == 0 {
			return false
		}
		// Nulls stay last under descending order too, so only flip
		// comparisons between two present values.
		if !spec.Ascending && va != nil && vb != nil {
			c = -c
		}
		return c < 0
	})

	if k > 0 && int64(len(order)) > k {
		order = order[:k]
	}
	return pipeline.TakeIndices(rec, order)
}
