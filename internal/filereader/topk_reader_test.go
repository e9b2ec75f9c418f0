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

	"github.com/cardinalhq/lakeview/internal/pipeline"
	"github.com/cardinalhq/lakeview/internal/sortspec"
)

func newTopKSource(t *testing.T, records ...arrow.RecordBatch) pipeline.Reader {
	t.Helper()
	source := pipeline.NewBatchesReader(records)
	for _, rec := range records {
		rec.Release()
	}
	return source
}

func TestTopKReaderSortsWithinBatch(t *testing.T) {
	source := newTopKSource(t, buildTestRecord(t,
		testRow{id: 5}, testRow{id: 1}, testRow{id: 9}, testRow{id: 3},
	))
	r := NewTopKReader(source, sortspec.Spec{Column: "id", Ascending: true}, 2)
	defer func() { _ = r.Close() }()

	assert.Equal(t, []any{int64(1), int64(3)}, readColumn(t, r, "id"))
	assert.Equal(t, int64(2), r.TotalRowsReturned())
}

func TestTopKReaderDescending(t *testing.T) {
	source := newTopKSource(t, buildTestRecord(t,
		testRow{id: 5}, testRow{id: 1}, testRow{id: 9}, testRow{id: 3},
	))
	r := NewTopKReader(source, sortspec.Spec{Column: "id", Ascending: false}, 2)
	defer func() { _ = r.Close() }()

	assert.Equal(t, []any{int64(9), int64(5)}, readColumn(t, r, "id"))
}

func TestTopKReaderNoCrossBatchMerge(t *testing.T) {
	source := newTopKSource(t,
		buildTestRecord(t, testRow{id: 5}, testRow{id: 1}),
		buildTestRecord(t, testRow{id: 3}, testRow{id: 2}),
	)
	r := NewTopKReader(source, sortspec.Spec{Column: "id", Ascending: true}, 1)
	defer func() { _ = r.Close() }()

	// Each batch surfaces its own winner; a global sort would return
	// only 1 here, but batches never merge on this path.
	assert.Equal(t, []any{int64(1), int64(2)}, readColumn(t, r, "id"))
}

func TestTopKReaderNullsLastBothDirections(t *testing.T) {
	build := func() pipeline.Reader {
		return newTopKSource(t, buildTestRecord(t,
			testRow{id: 1, score: scoreOf(2.5)},
			testRow{id: 2},
			testRow{id: 3, score: scoreOf(1.0)},
			testRow{id: 4},
		))
	}

	asc := NewTopKReader(build(), sortspec.Spec{Column: "score", Ascending: true}, 0)
	defer func() { _ = asc.Close() }()
	assert.Equal(t, []any{1.0, 2.5, nil, nil}, readColumn(t, asc, "score"))

	desc := NewTopKReader(build(), sortspec.Spec{Column: "score", Ascending: false}, 0)
	defer func() { _ = desc.Close() }()
	assert.Equal(t, []any{2.5, 1.0, nil, nil}, readColumn(t, desc, "score"))
}

func TestTopKReaderZeroKeepsAllRows(t *testing.T) {
	source := newTopKSource(t, buildTestRecord(t,
		testRow{id: 3}, testRow{id: 1}, testRow{id: 2},
	))
	r := NewTopKReader(source, sortspec.Spec{Column: "id", Ascending: true}, 0)
	defer func() { _ = r.Close() }()

	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, readColumn(t, r, "id"))
}

func TestTopKReaderStableTies(t *testing.T) {
	source := newTopKSource(t, buildTestRecord(t,
		testRow{id: 1, name: "x"}, testRow{id: 2, name: "x"}, testRow{id: 3, name: "x"},
	))
	r := NewTopKReader(source, sortspec.Spec{Column: "name", Ascending: true}, 2)
	defer func() { _ = r.Close() }()

	assert.Equal(t, []any{int64(1), int64(2)}, readColumn(t, r, "id"))
}

func TestTopKReaderMissingColumn(t *testing.T) {
	source := newTopKSource(t, buildTestRecord(t, testRow{id: 1}))
	r := NewTopKReader(source, sortspec.Spec{Column: "missing", Ascending: true}, 1)
	defer func() { _ = r.Close() }()

	_, err := r.Next(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sortspec.ErrColumnNotFound)
}

func TestTopKReaderEmptySource(t *testing.T) {
	r := NewTopKReader(newTopKSource(t), sortspec.Spec{Column: "id", Ascending: true}, 5)
	defer func() { _ = r.Close() }()

	_, err := r.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, int64(0), r.TotalRowsReturned())
}
