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

// Package pipeline defines the record stream interface shared by file
// readers, sort stages, and renderers, plus the record-level helpers
// (projection, slicing, row take, value conversion) they compose.
package pipeline

import (
	"context"
	"errors"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
)

// Reader is the core interface for pulling record batches from any stage.
// Batches follow Arrow ownership rules: Next transfers one reference to
// the caller, who must Release the record when done with it.
type Reader interface {
	// Next returns the next record batch.
	// Returns io.EOF when there are no more batches.
	Next(ctx context.Context) (arrow.RecordBatch, error)

	// Close releases any resources held by the reader.
	Close() error

	// TotalRowsReturned returns the number of rows returned via Next so far.
	TotalRowsReturned() int64
}

// BatchesReader replays an in-memory slice of record batches as a Reader.
// It retains each record on construction and releases them all on Close,
// so callers may release their own references immediately after.
type BatchesReader struct {
	records  []arrow.RecordBatch
	index    int
	closed   bool
	rowCount int64
}

// NewBatchesReader creates a reader over the given records.
func NewBatchesReader(records []arrow.RecordBatch) *BatchesReader {
	kept := make([]arrow.RecordBatch, len(records))
	copy(kept, records)
	for _, rec := range kept {
		rec.Retain()
	}
	return &BatchesReader{records: kept}
}

// Next returns the next record from the slice.
func (r *BatchesReader) Next(_ context.Context) (arrow.RecordBatch, error) {
	if r.closed {
		return nil, errors.New("reader is closed")
	}
	for r.index < len(r.records) {
		rec := r.records[r.index]
		r.index++
		if rec.NumRows() == 0 {
			continue
		}
		rec.Retain()
		r.rowCount += rec.NumRows()
		return rec, nil
	}
	return nil, io.EOF
}

// Close releases the retained records.
func (r *BatchesReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	for _, rec := range r.records {
		rec.Release()
	}
	r.records = nil
	return nil
}

// TotalRowsReturned returns the number of rows returned via Next.
func (r *BatchesReader) TotalRowsReturned() int64 {
	return r.rowCount
}

// ReadAll drains a reader into a slice of records. The caller owns the
// returned records and must release each of them. The reader itself is
// not closed.
func ReadAll(ctx context.Context, r Reader) ([]arrow.RecordBatch, error) {
	var records []arrow.RecordBatch
	for {
		rec, err := r.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			for _, kept := range records {
				kept.Release()
			}
			return nil, err
		}
		records = append(records, rec)
	}
}

// ReleaseAll releases every record in the slice.
func ReleaseAll(records []arrow.RecordBatch) {
	for _, rec := range records {
		rec.Release()
	}
}
