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
	"fmt"

	"github.com/cardinalhq/lakeview/internal/duckdbx"
	"github.com/cardinalhq/lakeview/internal/engine"
	"github.com/cardinalhq/lakeview/internal/pipeline"
)

// NewDuckDBSortReader streams one scan-project-sort-limit statement over
// a local Parquet file. DuckDB owns the ordering, including any spill to
// disk, so this path handles files much larger than memory; result rows
// come back as records of at most batchSize rows. The statement orders
// by every sort key in turn with nulls last regardless of direction and
// omits LIMIT when the limit is zero.
func NewDuckDBSortReader(ctx context.Context, db *duckdbx.DB, path string, q engine.Query, batchSize int) (pipeline.Reader, error) {
	fileSchema, err := ParquetArrowSchema(path)
	if err != nil {
		return nil, err
	}
	scanSchema, err := engine.ScanSchema(fileSchema, q.Columns)
	if err != nil {
		return nil, err
	}

	query := engine.BuildSelect(engine.ReadParquetExpr(path), q)
	rows, conn, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("duckdb query: %w", err)
	}

	reader, err := engine.NewRowsReader(rows, conn, scanSchema, batchSize, nil)
	if err != nil {
		_ = rows.Close()
		_ = conn.Close()
		return nil, err
	}
	return reader, nil
}
