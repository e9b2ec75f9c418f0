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
	"io"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakeview/internal/engine/enginetest"
	"github.com/cardinalhq/lakeview/internal/pipeline"
	"github.com/cardinalhq/lakeview/internal/sortspec"
)

func TestChunkedSortReaderSingleSmallChunk(t *testing.T) {
	rec := buildTestRecord(t,
		testRow{id: 3, name: "c", score: scoreOf(3)},
		testRow{id: 1, name: "a", score: scoreOf(1)},
		testRow{id: 2, name: "b", score: scoreOf(2)},
	)
	defer rec.Release()
	source := pipeline.NewBatchesReader([]arrow.RecordBatch{rec})

	r := NewChunkedSortReader(source, &enginetest.InMemory{},
		nil, []sortspec.Spec{{Column: "id", Ascending: true}}, 2)
	defer func() { require.NoError(t, r.Close()) }()

	ids := readColumn(t, r, "id")
	assert.Equal(t, []any{int64(1), int64(2)}, ids)
}

func TestChunkedSortReaderMultiKey(t *testing.T) {
	rec := buildTestRecord(t,
		testRow{id: 1, name: "x", score: scoreOf(1)},
		testRow{id: 1, name: "y", score: scoreOf(2)},
		testRow{id: 0, name: "z", score: scoreOf(3)},
	)
	defer rec.Release()
	source := pipeline.NewBatchesReader([]arrow.RecordBatch{rec})

	specs := []sortspec.Spec{
		{Column: "id", Ascending: true},
		{Column: "name", Ascending: false},
	}
	r := NewChunkedSortReader(source, &enginetest.InMemory{}, nil, specs, 0)
	defer func() { require.NoError(t, r.Close()) }()

	names := readColumn(t, r, "name")
	assert.Equal(t, []any{"z", "y", "x"}, names)
}

func TestChunkedSortReaderProjection(t *testing.T) {
	rec := buildTestRecord(t,
		testRow{id: 2, name: "b", score: scoreOf(2)},
		testRow{id: 1, name: "a", score: scoreOf(1)},
	)
	defer rec.Release()
	source := pipeline.NewBatchesReader([]arrow.RecordBatch{rec})

	r := NewChunkedSortReader(source, &enginetest.InMemory{},
		[]string{"name", "id"}, []sortspec.Spec{{Column: "id", Ascending: true}}, 0)
	defer func() { require.NoError(t, r.Close()) }()

	records, err := pipeline.ReadAll(context.Background(), r)
	require.NoError(t, err)
	defer pipeline.ReleaseAll(records)

	require.NotEmpty(t, records)
	assert.Equal(t, []string{"name", "id"}, pipeline.FieldNames(records[0].Schema()))
}

func TestChunkedSortReaderEmptySource(t *testing.T) {
	r := NewChunkedSortReader(pipeline.NewBatchesReader(nil), &enginetest.InMemory{},
		nil, []sortspec.Spec{{Column: "id", Ascending: true}}, 10)
	defer func() { require.NoError(t, r.Close()) }()

	_, err := r.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

// Five 50,000-row batches form a 250,000-row stream. With limit 100 the
// first two batches complete a chunk, its sorted output is capped at
// 2x100 = 200 candidates, and that already covers the limit, so the
// remaining three batches are never pulled.
func TestChunkedSortReaderEarlyTermination(t *testing.T) {
	var records []arrow.RecordBatch
	for i := int64(0); i < 5; i++ {
		records = append(records, buildSequenceRecord(t, i*50_000, 50_000))
	}
	source := pipeline.NewBatchesReader(records)
	pipeline.ReleaseAll(records)
	counting := &countingReader{inner: source}

	r := NewChunkedSortReader(counting, &enginetest.InMemory{},
		nil, []sortspec.Spec{{Column: "id", Ascending: true}}, 100)
	defer func() { require.NoError(t, r.Close()) }()

	ids := readColumn(t, r, "id")
	require.Len(t, ids, 100)
	for i, id := range ids {
		assert.Equal(t, int64(i), id)
	}
	assert.Equal(t, int64(100_000), counting.rowsPulled)
}

func TestChunkedSortReaderTrailingPartialChunk(t *testing.T) {
	// 100k + 30k rows: one full chunk, one partial flushed at EOF.
	recA := buildSequenceRecord(t, 0, chunkRowThreshold)
	recB := buildSequenceRecord(t, chunkRowThreshold, 30_000)
	source := pipeline.NewBatchesReader([]arrow.RecordBatch{recA, recB})
	recA.Release()
	recB.Release()

	// Descending with an unbounded limit keeps every row through both
	// chunk sorts, so the global winner lives in the partial chunk.
	r := NewChunkedSortReader(source, &enginetest.InMemory{},
		nil, []sortspec.Spec{{Column: "id", Ascending: false}}, 0)
	defer func() { require.NoError(t, r.Close()) }()

	ids := readColumn(t, r, "id")
	require.Len(t, ids, chunkRowThreshold+30_000)
	assert.Equal(t, int64(chunkRowThreshold+30_000-1), ids[0])
}
