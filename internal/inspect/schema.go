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

// Package inspect dumps schema and metadata for the supported container
// formats. Parquet structure comes straight from the file footer; ORC
// has no Arrow mapping in its library, so its Arrow view is the schema
// the streaming reader infers.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/cardinalhq/lakeview/internal/filereader"
)

// SchemaFormat selects how a schema is printed.
type SchemaFormat int

const (
	// SchemaRaw prints the format's native schema text.
	SchemaRaw SchemaFormat = iota

	// SchemaTree prints an indented tree of the Arrow schema.
	SchemaTree
)

// ParseSchemaFormat maps a --format flag value to a SchemaFormat.
func ParseSchemaFormat(s string) (SchemaFormat, error) {
	switch strings.ToLower(s) {
	case "raw":
		return SchemaRaw, nil
	case "tree":
		return SchemaTree, nil
	default:
		return SchemaRaw, fmt.Errorf("unknown schema format %q (use 'raw' or 'tree')", s)
	}
}

// WriteSchema prints the schema of an open source to w.
func WriteSchema(ctx context.Context, w io.Writer, src filereader.Source, format SchemaFormat) error {
	switch format {
	case SchemaRaw:
		return writeSchemaRaw(ctx, w, src)
	case SchemaTree:
		schema, err := arrowSchemaOf(ctx, src)
		if err != nil {
			return err
		}
		return writeSchemaTree(w, schema, src.Kind().String())
	default:
		return errors.New("unhandled schema format")
	}
}

func writeSchemaRaw(ctx context.Context, w io.Writer, src filereader.Source) error {
	switch src.Kind() {
	case filereader.FileKindParquet:
		schema, err := parquetRawSchema(src.Path())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, schema)
		return err
	default:
		schema, err := arrowSchemaOf(ctx, src)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, schema.String())
		return err
	}
}

// arrowSchemaOf returns the source's Arrow schema. Parquet reads it from
// the footer; ORC pulls the first record and uses the schema inferred
// for it, falling back to all-utf8 columns when the file has no rows.
func arrowSchemaOf(ctx context.Context, src filereader.Source) (*arrow.Schema, error) {
	if src.Kind() == filereader.FileKindParquet {
		return filereader.ParquetArrowSchema(src.Path())
	}

	r, err := src.Open(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	rec, err := r.Next(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			fields := make([]arrow.Field, 0, len(src.Columns()))
			for _, name := range src.Columns() {
				fields = append(fields, arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true})
			}
			return arrow.NewSchema(fields, nil), nil
		}
		return nil, err
	}
	schema := rec.Schema()
	rec.Release()
	return schema, nil
}
