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
	"fmt"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/lakeview/internal/duckdbx"
	"github.com/cardinalhq/lakeview/internal/idgen"
	"github.com/cardinalhq/lakeview/internal/pipeline"
)

// DuckDB implements Engine by handing the batches to DuckDB: the records
// are written to one scratch Parquet file, and a single
// scan-project-sort-limit statement streams the result back. DuckDB owns
// spilling, so sorts larger than its memory limit degrade to disk instead
// of failing.
type DuckDB struct {
	db        *duckdbx.DB
	tmpDir    string
	batchSize int
	ids       idgen.IDGenerator
}

var _ Engine = (*DuckDB)(nil)

// NewDuckDB creates an engine over an open database. Scratch files go to
// tmpDir; result batches carry up to batchSize rows.
func NewDuckDB(db *duckdbx.DB, tmpDir string, batchSize int) *DuckDB {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &DuckDB{
		db:        db,
		tmpDir:    tmpDir,
		batchSize: batchSize,
		ids:       idgen.NewULIDGenerator(),
	}
}

// SortBatches projects, sorts, and limits the records, streaming the result.
func (e *DuckDB) SortBatches(ctx context.Context, records []arrow.RecordBatch, q Query) (pipeline.Reader, error) {
	records = nonEmpty(records)
	if len(records) == 0 {
		return pipeline.NewBatchesReader(nil), nil
	}

	start := time.Now()

	scratch, err := writeScratchParquet(e.tmpDir, records, e.ids)
	if err != nil {
		return nil, fmt.Errorf("stage batches for sort: %w", err)
	}
	if st, statErr := os.Stat(scratch); statErr == nil {
		scratchBytesCounter.Add(ctx, st.Size())
	}

	schema, err := ScanSchema(records[0].Schema(), q.Columns)
	if err != nil {
		_ = os.Remove(scratch)
		return nil, err
	}

	query := BuildSelect(ReadParquetExpr(scratch), q)
	rows, conn, err := e.db.QueryContext(ctx, query)
	if err != nil {
		_ = os.Remove(scratch)
		return nil, fmt.Errorf("duckdb query: %w", err)
	}

	reader, err := NewRowsReader(rows, conn, schema, e.batchSize, func() error {
		return os.Remove(scratch)
	})
	if err != nil {
		_ = rows.Close()
		_ = conn.Close()
		_ = os.Remove(scratch)
		return nil, err
	}

	queryDurationHistogram.Record(ctx, time.Since(start).Seconds(), otelmetric.WithAttributes(
		attribute.String("engine", "duckdb"),
	))

	return reader, nil
}

// nonEmpty drops zero-row records; pqarrow writers and DuckDB both accept
// them, but skipping early keeps the scratch file tight.
func nonEmpty(records []arrow.RecordBatch) []arrow.RecordBatch {
	kept := records[:0:0]
	for _, rec := range records {
		if rec.NumRows() > 0 {
			kept = append(kept, rec)
		}
	}
	return kept
}
