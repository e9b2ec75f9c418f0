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

package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/cardinalhq/lakeview/internal/filereader"
)

// WriteMetadata prints file-level metadata for an open source. Parquet
// reports row groups, rows, the writer string, and any key-value pairs
// from the footer. ORC reports the row count only: its library exposes
// neither the footer statistics nor user metadata, so the count comes
// from a column scan.
func WriteMetadata(ctx context.Context, w io.Writer, src filereader.Source) error {
	switch src.Kind() {
	case filereader.FileKindParquet:
		return writeParquetMetadata(w, src.Path())
	default:
		return writeORCMetadata(ctx, w, src)
	}
}

func openParquetFooter(path string) (*parquet.File, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	return pf, f.Close, nil
}

// parquetRawSchema returns the parquet-go rendering of the file schema.
func parquetRawSchema(path string) (string, error) {
	pf, closer, err := openParquetFooter(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = closer() }()
	return pf.Schema().String(), nil
}

func writeParquetMetadata(w io.Writer, path string) error {
	pf, closer, err := openParquetFooter(path)
	if err != nil {
		return err
	}
	defer func() { _ = closer() }()

	md := pf.Metadata()
	fmt.Fprintf(w, "Number of row groups: %d\n", len(md.RowGroups))
	fmt.Fprintf(w, "Number of rows: %d\n", md.NumRows)

	created := md.CreatedBy
	if created == "" {
		created = "N/A"
	}
	fmt.Fprintf(w, "Created by: %s\n", created)

	if len(md.KeyValueMetadata) > 0 {
		fmt.Fprintln(w, "Key-value metadata:")
		for _, kv := range md.KeyValueMetadata {
			fmt.Fprintf(w, "  %s: %s\n", kv.Key, kv.Value)
		}
	}
	return nil
}

func writeORCMetadata(ctx context.Context, w io.Writer, src filereader.Source) error {
	r, err := src.Open(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	var rows int64
	for {
		rec, err := r.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		rows += rec.NumRows()
		rec.Release()
	}

	_, err = fmt.Fprintf(w, "Number of rows: %d\n", rows)
	return err
}
