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
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/cardinalhq/lakeview/internal/idgen"
)

// writeScratchParquet writes the records to a fresh Parquet file in dir so
// DuckDB can scan them. All records must share the first record's schema.
// The caller removes the file when the query over it finishes.
func writeScratchParquet(dir string, records []arrow.RecordBatch, ids idgen.IDGenerator) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("no records to write")
	}
	schema := records[0].Schema()

	path := filepath.Join(dir, fmt.Sprintf("sort-%s.parquet", ids.Make(time.Now())))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithDictionaryDefault(true),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithStoreSchema(),
	)

	fw, err := pqarrow.NewFileWriter(schema, f, writerProps, arrowProps)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to create parquet writer: %w", err)
	}

	for _, rec := range records {
		if !rec.Schema().Equal(schema) {
			_ = fw.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("record schema drifted within one sort pass")
		}
		if err := fw.Write(rec); err != nil {
			_ = fw.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("failed to write record batch: %w", err)
		}
	}

	// Closing the parquet writer also closes the underlying file
	if err := fw.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close parquet writer: %w", err)
	}

	return path, nil
}
