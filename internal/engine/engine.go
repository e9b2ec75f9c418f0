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

// Package engine defines the narrow sort-and-limit surface the reader
// stack delegates to, and its DuckDB implementation. Given a set of
// in-memory record batches, an engine projects, sorts (multi-key, stable,
// nulls always last), applies a row limit, and streams the result back.
package engine

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/cardinalhq/lakeview/internal/pipeline"
	"github.com/cardinalhq/lakeview/internal/sortspec"
)

// Query describes one sort-and-limit pass over a set of batches.
type Query struct {
	// Columns projects the output to these columns, in order. nil keeps
	// every column.
	Columns []string

	// Sorts lists the sort keys in priority order. Nulls sort last in
	// both directions.
	Sorts []sortspec.Spec

	// Limit caps the number of output rows. 0 means unbounded.
	Limit int64
}

// Engine sorts and limits record batches. Implementations must keep ties
// in input order and place null key values after all non-null values
// regardless of sort direction.
type Engine interface {
	SortBatches(ctx context.Context, records []arrow.RecordBatch, q Query) (pipeline.Reader, error)
}
