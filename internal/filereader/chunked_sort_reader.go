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

	"github.com/cardinalhq/lakeview/internal/engine"
	"github.com/cardinalhq/lakeview/internal/pipeline"
	"github.com/cardinalhq/lakeview/internal/sortspec"
)

// chunkRowThreshold is the row count at which an accumulating chunk is
// handed to the engine for its local sort.
const chunkRowThreshold = 100_000

// ChunkedSortReader approximates a full external sort for sources that
// can only stream. It accumulates records into chunks, sorts each chunk
// through the engine with a doubled provisional limit, and sorts the
// surviving candidates once more at the end. The doubling is a safety
// margin, not a guarantee: with skewed value distributions a chunk's
// winners can still crowd out rows that belong in the true global
// result. When the limit is set, pulling stops as soon as the candidate
// pool can already satisfy it.
//
// Projection is applied during the per-chunk sorts, so the source should
// be opened unprojected.
type ChunkedSortReader struct {
	source     pipeline.Reader
	eng        engine.Engine
	projection []string
	specs      []sortspec.Spec
	limit      int64

	out      pipeline.Reader
	closed   bool
	rowCount int64
}

var _ pipeline.Reader = (*ChunkedSortReader)(nil)

// NewChunkedSortReader wraps source; the work runs on the first Next.
func NewChunkedSortReader(source pipeline.Reader, eng engine.Engine, projection []string, specs []sortspec.Spec, limit int64) *ChunkedSortReader {
	return &ChunkedSortReader{
		source:     source,
		eng:        eng,
		projection: projection,
		specs:      specs,
		limit:      limit,
	}
}

// overfetchLimit doubles the final limit for the per-chunk sorts so
// plausible winners from neighboring chunks survive into the merge.
// Zero stays zero: an unbounded request caps nothing.
func overfetchLimit(limit int64) int64 {
	return 2 * limit
}

// run pulls the source to completion or early termination and prepares
// the final sorted stream.
func (r *ChunkedSortReader) run(ctx context.Context) error {
	var (
		chunk         []arrow.RecordBatch
		chunkRows     int64
		candidates    []arrow.RecordBatch
		candidateRows int64
	)
	defer func() {
		pipeline.ReleaseAll(chunk)
		pipeline.ReleaseAll(candidates)
	}()

	flush := func() error {
		sorted, err := r.eng.SortBatches(ctx, chunk, engine.Query{
			Columns: r.projection,
			Sorts:   r.specs,
			Limit:   overfetchLimit(r.limit),
		})
		pipeline.ReleaseAll(chunk)
		chunk, chunkRows = nil, 0
		if err != nil {
			return fmt.Errorf("chunk sort: %w", err)
		}
		recs, err := pipeline.ReadAll(ctx, sorted)
		closeErr := sorted.Close()
		if err != nil {
			return fmt.Errorf("chunk sort: %w", err)
		}
		if closeErr != nil {
			pipeline.ReleaseAll(recs)
			return closeErr
		}
		for _, rec := range recs {
			candidateRows += rec.NumRows()
		}
		candidates = append(candidates, recs...)
		return nil
	}

	for {
		rec, err := r.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		chunk = append(chunk, rec)
		chunkRows += rec.NumRows()

		if chunkRows >= chunkRowThreshold {
			if err := flush(); err != nil {
				return err
			}
			if r.limit > 0 && candidateRows >= r.limit {
				// The pool can already satisfy the limit; later rows lose
				// their chance to place, which is part of the
				// approximation this reader accepts.
				break
			}
		}
	}

	if len(chunk) > 0 {
		if err := flush(); err != nil {
			return err
		}
	}

	out, err := r.eng.SortBatches(ctx, candidates, engine.Query{
		Sorts: r.specs,
		Limit: r.limit,
	})
	if err != nil {
		return fmt.Errorf("final sort: %w", err)
	}
	r.out = out
	return nil
}

// Next returns the next batch of the final sorted stream.
func (r *ChunkedSortReader) Next(ctx context.Context) (arrow.RecordBatch, error) {
	if r.closed {
		return nil, errors.New("reader is closed")
	}
	if r.out == nil {
		if err := r.run(ctx); err != nil {
			return nil, err
		}
	}

	rec, err := r.out.Next(ctx)
	if err != nil {
		return nil, err
	}
	r.rowCount += rec.NumRows()
	return rec, nil
}

// Close closes the reader, the final stream, and the underlying source.
func (r *ChunkedSortReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var outErr error
	if r.out != nil {
		outErr = r.out.Close()
		r.out = nil
	}
	return errors.Join(outErr, r.source.Close())
}

// TotalRowsReturned returns the number of rows returned via Next.
func (r *ChunkedSortReader) TotalRowsReturned() int64 {
	return r.rowCount
}
