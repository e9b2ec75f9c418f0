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
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/scritchley/orc"

	"github.com/cardinalhq/lakeview/internal/pipeline"
)

// Source is an open columnar input: a local file whose container format
// has been detected and whose column names are loaded. Each Open call
// starts an independent record stream over the file.
type Source interface {
	// Kind reports the container format.
	Kind() FileKind

	// Path returns the local file path readers and engine scans use.
	// For compressed inputs this is the inflated scratch copy.
	Path() string

	// Columns returns the top-level column names in file order.
	Columns() []string

	// Open starts a new record stream. A nil projection reads every
	// column; a non-nil one restricts output to the named columns in the
	// order given.
	Open(ctx context.Context, projection []string) (pipeline.Reader, error)

	// Close releases the source, removing any scratch file backing it.
	Close() error
}

// OpenSource checks that path exists, detects its format (inflating one
// compression layer into tmpDir first when present), and loads its
// column names.
func OpenSource(ctx context.Context, path, tmpDir string, batchSize int) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	kind := DetectFileKind(path)
	if kind == FileKindUnknown {
		return nil, fmt.Errorf("%w for file: %s", ErrUnsupportedFileType, path)
	}

	local := path
	scratch := false
	if c := DetectCompression(path); c != CompressionNone {
		inflated, err := DecompressToTemp(ctx, path, c, tmpDir)
		if err != nil {
			return nil, err
		}
		local, scratch = inflated, true
	}

	var (
		src Source
		err error
	)
	switch kind {
	case FileKindParquet:
		src, err = newParquetSource(local, scratch, batchSize)
	default:
		src, err = newORCSource(local, scratch, batchSize)
	}
	if err != nil {
		if scratch {
			_ = os.Remove(local)
		}
		return nil, err
	}
	return src, nil
}

type parquetSource struct {
	path      string
	scratch   bool
	batchSize int
	schema    *arrow.Schema
	closed    bool
}

// ParquetArrowSchema reads just the footer of a parquet file and returns
// its Arrow schema.
func ParquetArrowSchema(path string) (*arrow.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	pf, err := file.NewParquetReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		_ = pf.Close()
		return nil, fmt.Errorf("failed to create arrow file reader: %w", err)
	}
	schema, err := fr.Schema()
	closeErr := pf.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to get arrow schema: %w", err)
	}
	if closeErr != nil {
		return nil, closeErr
	}
	return schema, nil
}

func newParquetSource(path string, scratch bool, batchSize int) (*parquetSource, error) {
	schema, err := ParquetArrowSchema(path)
	if err != nil {
		return nil, err
	}
	return &parquetSource{
		path:      path,
		scratch:   scratch,
		batchSize: batchSize,
		schema:    schema,
	}, nil
}

func (s *parquetSource) Kind() FileKind { return FileKindParquet }

func (s *parquetSource) Path() string { return s.path }

func (s *parquetSource) Columns() []string { return pipeline.FieldNames(s.schema) }

// Schema returns the file's Arrow schema.
func (s *parquetSource) Schema() *arrow.Schema { return s.schema }

func (s *parquetSource) Open(ctx context.Context, projection []string) (pipeline.Reader, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	r, err := NewParquetArrowReader(ctx, f, s.batchSize, projection)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

func (s *parquetSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.scratch {
		return os.Remove(s.path)
	}
	return nil
}

type orcSource struct {
	path      string
	scratch   bool
	batchSize int
	columns   []string
	closed    bool
}

func newORCSource(path string, scratch bool, batchSize int) (*orcSource, error) {
	or, err := orc.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open orc file: %w", err)
	}
	columns := or.Schema().Columns()
	if err := or.Close(); err != nil {
		return nil, err
	}
	return &orcSource{
		path:      path,
		scratch:   scratch,
		batchSize: batchSize,
		columns:   columns,
	}, nil
}

func (s *orcSource) Kind() FileKind { return FileKindORC }

func (s *orcSource) Path() string { return s.path }

func (s *orcSource) Columns() []string { return s.columns }

func (s *orcSource) Open(_ context.Context, projection []string) (pipeline.Reader, error) {
	return NewORCRawReader(s.path, s.batchSize, projection)
}

func (s *orcSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.scratch {
		return os.Remove(s.path)
	}
	return nil
}
